package llm

import (
	"context"
	"fmt"
	"log/slog"

	"catmatch/internal/common"
	"catmatch/internal/model"
)

// Classifier maps one batch of external labels against the full catalog via
// a single model call. It holds no mutable state across calls beyond the
// bound client.
type Classifier struct {
	client Client
	logger *slog.Logger
	cfg    Config
}

// NewClassifier creates a classifier with a provider client built from
// configuration.
func NewClassifier(ctx context.Context, cfg Config, logger *slog.Logger) (*Classifier, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewClassifierWithClient(client, cfg, logger), nil
}

// NewClassifierWithClient wires an existing client; used by tests and by
// callers that manage the client lifecycle themselves.
func NewClassifierWithClient(client Client, cfg Config, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HighConfidenceHint <= 0 {
		cfg.HighConfidenceHint = DefaultHighConfidenceHint
	}
	if cfg.ReasoningLimit <= 0 {
		cfg.ReasoningLimit = DefaultReasoningLimit
	}
	return &Classifier{client: client, logger: logger, cfg: cfg}
}

// MapBatch classifies one batch of labels against the catalog using the
// given model. Callers are responsible for batching; the catalog is always
// passed whole.
func (c *Classifier) MapBatch(ctx context.Context, modelID string, labels []string, catalog []model.Category) ([]model.MappingResult, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("%w: no catalog loaded", common.ErrNotConfigured)
	}

	prompt := buildPrompt(labels, catalog, c.cfg.HighConfidenceHint)

	raw, err := c.client.Complete(ctx, modelID, prompt)
	if err != nil {
		return nil, err
	}

	results, err := parseBatchResponse(raw, labels, model.CategoriesByID(catalog), c.cfg.ReasoningLimit)
	if err != nil {
		return nil, err
	}

	matched := 0
	for _, r := range results {
		if r.Suggested != nil {
			matched++
		}
	}
	c.logger.Info("batch classified",
		"model", modelID,
		"labels", len(labels),
		"matched", matched)

	return results, nil
}
