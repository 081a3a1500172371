package common

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryOptions configures WithRetry behavior.
type RetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Sleep waits between attempts. Nil uses a context-aware timer; tests
	// swap it to record backoff waits.
	Sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry executes an operation with bounded retries and exponential
// backoff. The operation receives the zero-based attempt index so callers
// can vary behavior across attempts (e.g. model fallback rotation). The wait
// before retry n (n>=1) is BaseDelay * 2^(n-1), capped at MaxDelay; no wait
// happens before the first attempt or after the last.
func WithRetry(ctx context.Context, operation func(attempt int) error, opts RetryOptions) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 2 * time.Second
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := opts.BaseDelay << uint(attempt-1)
			if delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
			slog.Warn("Operation failed, retrying",
				"attempt", attempt,
				"max_attempts", opts.MaxAttempts,
				"delay", delay,
				"error", lastErr)
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}

		err := operation(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrMaxRetries, opts.MaxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
