// Package engine drives the AI classifier over arbitrarily large label sets:
// fixed-size chunking, strictly sequential submission with inter-chunk
// pacing, bounded retries with model fallback, and exponential backoff.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"catmatch/internal/common"
	"catmatch/internal/model"
)

// BatchClassifier is the single-chunk classification dependency, satisfied
// by *llm.Classifier.
type BatchClassifier interface {
	MapBatch(ctx context.Context, modelID string, labels []string, catalog []model.Category) ([]model.MappingResult, error)
}

// Default orchestration tuning.
const (
	DefaultChunkSize     = 20
	DefaultMaxAttempts   = 3
	DefaultBackoffBase   = 2 * time.Second
	DefaultChunkInterval = time.Second
)

// DefaultFallbackModels is the ordered model rotation used when the caller
// does not configure one.
var DefaultFallbackModels = []string{
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-1.5-pro",
}

// Options configures an orchestration run. Zero values fall back to
// defaults.
type Options struct {
	// Model is used on the first attempt of every chunk.
	Model string
	// FallbackModels are rotated through on retries, wrapping if attempts
	// exceed the list length.
	FallbackModels []string
	// ChunkSize bounds how many labels one model call carries.
	ChunkSize int
	// MaxAttempts bounds attempts per chunk, first try included.
	MaxAttempts int
	// BackoffBase seeds the exponential backoff between retries.
	BackoffBase time.Duration
	// ChunkInterval paces consecutive chunk submissions.
	ChunkInterval time.Duration
	// OnChunk, if set, is called after each completed chunk with the number
	// of finished chunks and the total.
	OnChunk func(done, total int)
}

// Orchestrator sequences chunked classification calls. A single call is in
// flight at a time; chunks are never issued concurrently.
type Orchestrator struct {
	classifier BatchClassifier
	logger     *slog.Logger
	opts       Options

	// pace waits before each chunk submission; swapped in tests.
	pace func(ctx context.Context) error
	// sleep waits between retry attempts; swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an orchestrator around a batch classifier.
func New(classifier BatchClassifier, logger *slog.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = DefaultBackoffBase
	}
	if opts.ChunkInterval <= 0 {
		opts.ChunkInterval = DefaultChunkInterval
	}
	if len(opts.FallbackModels) == 0 {
		opts.FallbackModels = DefaultFallbackModels
	}
	if opts.Model == "" {
		opts.Model = opts.FallbackModels[0]
	}

	// The limiter starts with one token, so the first chunk goes out
	// immediately and every later chunk waits out the interval.
	limiter := rate.NewLimiter(rate.Every(opts.ChunkInterval), 1)

	return &Orchestrator{
		classifier: classifier,
		logger:     logger,
		opts:       opts,
		pace:       limiter.Wait,
	}
}

// MapAll splits labels into fixed-size chunks in input order, classifies
// each chunk sequentially, and concatenates the results so output order
// matches input order. It returns on the first permanent or
// retry-exhausted failure; partial results are discarded.
func (o *Orchestrator) MapAll(ctx context.Context, labels []string, catalog []model.Category) ([]model.MappingResult, error) {
	if len(labels) == 0 {
		return nil, nil
	}

	chunks := chunkLabels(labels, o.opts.ChunkSize)
	o.logger.Info("starting AI mapping",
		"labels", len(labels),
		"chunks", len(chunks),
		"chunk_size", o.opts.ChunkSize,
		"model", o.opts.Model)

	results := make([]model.MappingResult, 0, len(labels))
	for i, chunk := range chunks {
		if err := o.pace(ctx); err != nil {
			return nil, err
		}

		mapped, err := o.mapChunk(ctx, chunk, catalog)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		results = append(results, mapped...)

		if o.opts.OnChunk != nil {
			o.opts.OnChunk(i+1, len(chunks))
		}
	}
	return results, nil
}

// ChunkCount reports how many chunk calls MapAll would issue for n labels.
func (o *Orchestrator) ChunkCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + o.opts.ChunkSize - 1) / o.opts.ChunkSize
}

// mapChunk runs one chunk through the retry controller.
func (o *Orchestrator) mapChunk(ctx context.Context, chunk []string, catalog []model.Category) ([]model.MappingResult, error) {
	var mapped []model.MappingResult

	err := common.WithRetry(ctx, func(attempt int) error {
		modelID := o.modelForAttempt(attempt)
		results, err := o.classifier.MapBatch(ctx, modelID, chunk, catalog)
		if err != nil {
			o.logger.Warn("chunk classification attempt failed",
				"model", modelID,
				"attempt", attempt+1,
				"labels", len(chunk),
				"error", err)
			return err
		}
		mapped = results
		return nil
	}, common.RetryOptions{
		MaxAttempts: o.opts.MaxAttempts,
		BaseDelay:   o.opts.BackoffBase,
		Sleep:       o.sleep,
	})
	if err != nil {
		return nil, err
	}
	return mapped, nil
}

// modelForAttempt returns the model for a zero-based attempt index: the
// configured model first, then the fallback rotation, wrapping as needed.
// A persistently overloaded model therefore never exhausts all retries
// against itself.
func (o *Orchestrator) modelForAttempt(attempt int) string {
	if attempt == 0 {
		return o.opts.Model
	}
	fallbacks := o.opts.FallbackModels
	return fallbacks[(attempt-1)%len(fallbacks)]
}

func chunkLabels(labels []string, size int) [][]string {
	chunks := make([][]string, 0, (len(labels)+size-1)/size)
	for start := 0; start < len(labels); start += size {
		end := start + size
		if end > len(labels) {
			end = len(labels)
		}
		chunks = append(chunks, labels[start:end])
	}
	return chunks
}
