// Package common provides shared error classification, retry, and logging
// utilities used across the reconciliation engine.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Classifier error taxonomy. Permanent errors abort an orchestration
// immediately; transient errors are retried with backoff.
var (
	// ErrInvalidCredential indicates the API credential was rejected.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrQuotaExceeded indicates the API quota is exhausted.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrAccessDenied indicates the credential lacks access to the resource.
	ErrAccessDenied = errors.New("access denied")
	// ErrServiceUnavailable covers overload, rate limiting and 5xx-class failures.
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
	// ErrMalformedResponse indicates the model returned text that is not valid
	// structured data after fence stripping.
	ErrMalformedResponse = errors.New("malformed classifier response")
	// ErrNotConfigured indicates a missing credential or empty catalog; it is
	// raised before any network attempt.
	ErrNotConfigured = errors.New("not configured")
	// ErrMaxRetries indicates all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError wraps an error with explicit retry metadata.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether err can never succeed on retry.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidCredential) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrNotConfigured)
}

// IsRetryable determines whether an error should trigger a retry. Permanent
// errors and malformed responses never retry; a malformed response is
// unlikely to self-correct on immediate retry. Unknown errors default to
// retryable so flaky network failures get their full attempt budget.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsPermanent(err) || errors.Is(err, ErrMalformedResponse) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}
	return true
}

// UserError represents an error that should be shown to the user with a
// specific, actionable reason.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
