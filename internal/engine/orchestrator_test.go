package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catmatch/internal/common"
	"catmatch/internal/model"
)

// mockBatchClassifier records every call and replays scripted errors.
type mockBatchClassifier struct {
	calls      int
	chunkSizes []int
	models     []string
	// errFor decides per call whether to fail; nil means always succeed.
	errFor func(call int) error
}

func (m *mockBatchClassifier) MapBatch(_ context.Context, modelID string, labels []string, _ []model.Category) ([]model.MappingResult, error) {
	call := m.calls
	m.calls++
	m.chunkSizes = append(m.chunkSizes, len(labels))
	m.models = append(m.models, modelID)

	if m.errFor != nil {
		if err := m.errFor(call); err != nil {
			return nil, err
		}
	}

	results := make([]model.MappingResult, len(labels))
	for i, label := range labels {
		results[i] = model.MappingResult{
			XMLCategory: label,
			Confidence:  0.9,
			Source:      model.SourceAI,
		}
	}
	return results, nil
}

func noWait(o *Orchestrator) *Orchestrator {
	o.pace = func(context.Context) error { return nil }
	o.sleep = func(context.Context, time.Duration) error { return nil }
	return o
}

func makeLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("kategori-%03d", i)
	}
	return labels
}

func testCatalog() []model.Category {
	return []model.Category{{ID: "1", Name: "Sütyen"}}
}

func TestMapAllChunking(t *testing.T) {
	mock := &mockBatchClassifier{}
	o := noWait(New(mock, nil, Options{ChunkSize: 20}))

	results, err := o.MapAll(context.Background(), makeLabels(45), testCatalog())
	require.NoError(t, err)

	assert.Equal(t, 3, mock.calls, "45 labels at chunk size 20 issue 3 calls")
	assert.Equal(t, []int{20, 20, 5}, mock.chunkSizes)
	assert.Len(t, results, 45)
}

func TestMapAllPreservesInputOrder(t *testing.T) {
	mock := &mockBatchClassifier{}
	o := noWait(New(mock, nil, Options{ChunkSize: 10}))

	labels := makeLabels(25)
	results, err := o.MapAll(context.Background(), labels, testCatalog())
	require.NoError(t, err)

	require.Len(t, results, len(labels))
	for i, r := range results {
		assert.Equal(t, labels[i], r.XMLCategory)
	}
}

func TestMapAllPacesEveryChunk(t *testing.T) {
	mock := &mockBatchClassifier{}
	o := New(mock, nil, Options{ChunkSize: 20})
	paceCalls := 0
	o.pace = func(context.Context) error {
		paceCalls++
		return nil
	}
	o.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := o.MapAll(context.Background(), makeLabels(45), testCatalog())
	require.NoError(t, err)

	// The limiter's initial token makes the first wait free, so three paced
	// chunks mean two real inter-batch pauses.
	assert.Equal(t, 3, paceCalls)
}

func TestMapAllEmptyLabels(t *testing.T) {
	mock := &mockBatchClassifier{}
	o := noWait(New(mock, nil, Options{}))

	results, err := o.MapAll(context.Background(), nil, testCatalog())
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, mock.calls)
}

func TestMapAllRetryExhaustion(t *testing.T) {
	mock := &mockBatchClassifier{
		errFor: func(int) error { return common.ErrServiceUnavailable },
	}
	o := noWait(New(mock, nil, Options{ChunkSize: 20, MaxAttempts: 3}))

	_, err := o.MapAll(context.Background(), makeLabels(5), testCatalog())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMaxRetries)
	assert.Equal(t, 3, mock.calls, "transient failures use the whole attempt budget")
}

func TestMapAllPermanentErrorAbortsImmediately(t *testing.T) {
	mock := &mockBatchClassifier{
		errFor: func(int) error { return common.ErrInvalidCredential },
	}
	o := New(mock, nil, Options{ChunkSize: 20, MaxAttempts: 3})
	var waits []time.Duration
	o.pace = func(context.Context) error { return nil }
	o.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	_, err := o.MapAll(context.Background(), makeLabels(45), testCatalog())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
	assert.Equal(t, 1, mock.calls, "permanent errors get no retries")
	assert.Empty(t, waits, "permanent errors get no backoff waits")
}

func TestMapAllMalformedResponseNotRetried(t *testing.T) {
	mock := &mockBatchClassifier{
		errFor: func(int) error { return common.ErrMalformedResponse },
	}
	o := noWait(New(mock, nil, Options{MaxAttempts: 3}))

	_, err := o.MapAll(context.Background(), makeLabels(3), testCatalog())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedResponse)
	assert.Equal(t, 1, mock.calls)
}

func TestMapAllFirstFailureStopsLaterChunks(t *testing.T) {
	mock := &mockBatchClassifier{
		errFor: func(call int) error {
			if call == 1 {
				return common.ErrQuotaExceeded
			}
			return nil
		},
	}
	o := noWait(New(mock, nil, Options{ChunkSize: 10, MaxAttempts: 3}))

	_, err := o.MapAll(context.Background(), makeLabels(30), testCatalog())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)
	assert.Equal(t, 2, mock.calls, "no chunks are submitted after the first failure")
}

func TestMapAllBackoffGrowth(t *testing.T) {
	mock := &mockBatchClassifier{
		errFor: func(int) error { return common.ErrServiceUnavailable },
	}
	o := New(mock, nil, Options{MaxAttempts: 3, BackoffBase: 2 * time.Second})
	var waits []time.Duration
	o.pace = func(context.Context) error { return nil }
	o.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	_, err := o.MapAll(context.Background(), makeLabels(3), testCatalog())
	require.Error(t, err)
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, waits)
	for i := 1; i < len(waits); i++ {
		assert.GreaterOrEqual(t, waits[i], waits[i-1])
	}
}

func TestMapAllModelFallbackRotation(t *testing.T) {
	mock := &mockBatchClassifier{
		errFor: func(int) error { return common.ErrServiceUnavailable },
	}
	o := noWait(New(mock, nil, Options{
		Model:          "primary",
		FallbackModels: []string{"fallback-a", "fallback-b"},
		MaxAttempts:    5,
	}))

	_, err := o.MapAll(context.Background(), makeLabels(3), testCatalog())
	require.Error(t, err)
	assert.Equal(t, []string{"primary", "fallback-a", "fallback-b", "fallback-a", "fallback-b"}, mock.models,
		"retries rotate through the fallback list, wrapping at the end")
}

func TestMapAllRecoversAfterFallbackSucceeds(t *testing.T) {
	mock := &mockBatchClassifier{
		errFor: func(call int) error {
			if call == 0 {
				return common.ErrServiceUnavailable
			}
			return nil
		},
	}
	o := noWait(New(mock, nil, Options{
		Model:          "primary",
		FallbackModels: []string{"fallback-a"},
		MaxAttempts:    3,
		ChunkSize:      20,
	}))

	results, err := o.MapAll(context.Background(), makeLabels(5), testCatalog())
	require.NoError(t, err)
	assert.Len(t, results, 5)
	assert.Equal(t, []string{"primary", "fallback-a"}, mock.models)
}

func TestMapAllContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := &mockBatchClassifier{
		errFor: func(int) error {
			cancel()
			return common.ErrServiceUnavailable
		},
	}
	o := New(mock, nil, Options{MaxAttempts: 3})
	o.pace = func(ctx context.Context) error { return ctx.Err() }

	_, err := o.MapAll(ctx, makeLabels(3), testCatalog())
	require.Error(t, err)
	assert.Equal(t, 1, mock.calls)
}

func TestMapAllReportsChunkProgress(t *testing.T) {
	mock := &mockBatchClassifier{}
	var progress [][2]int
	o := noWait(New(mock, nil, Options{
		ChunkSize: 20,
		OnChunk:   func(done, total int) { progress = append(progress, [2]int{done, total}) },
	}))

	_, err := o.MapAll(context.Background(), makeLabels(45), testCatalog())
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)
}

func TestChunkCount(t *testing.T) {
	o := New(&mockBatchClassifier{}, nil, Options{ChunkSize: 20})

	assert.Equal(t, 0, o.ChunkCount(0))
	assert.Equal(t, 1, o.ChunkCount(1))
	assert.Equal(t, 1, o.ChunkCount(20))
	assert.Equal(t, 3, o.ChunkCount(45))
}
