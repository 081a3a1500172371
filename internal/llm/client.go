// Package llm implements the AI-assisted batch mapping path: prompt
// construction, provider clients, and structured response parsing.
//
// Unlike the deterministic matcher, which represents "no match" as data and
// never fails, this package raises typed errors for genuine failures
// (credentials, quota, overload, unparseable responses). "The model found
// nothing suitable" is still data: a mapping with a nil suggested category.
package llm

import (
	"context"
	"fmt"
	"strings"

	"catmatch/internal/common"
)

// Client is the minimal completion interface implemented by each provider.
// The model identifier is a per-call argument so the retry controller can
// rotate through fallback models without rebuilding the client.
type Client interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Config holds classifier configuration. Values are passed in explicitly at
// construction; nothing is read from ambient globals.
type Config struct {
	Provider    string
	APIKey      string
	Endpoint    string // OpenAI-compatible endpoint override
	Temperature float64
	MaxTokens   int
	// HighConfidenceHint is the prompt guidance floor for "very strong match"
	// confidence values. It is independent of the matcher accept threshold.
	HighConfidenceHint float64
	// ReasoningLimit bounds stored reasoning strings, in characters.
	ReasoningLimit int
}

// Default tuning values.
const (
	DefaultHighConfidenceHint = 0.9
	DefaultReasoningLimit     = 200
)

// NewClient creates a provider client based on configuration.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "google":
		return newGeminiClient(ctx, cfg)
	case "openai", "openrouter":
		return newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrNotConfigured, cfg.Provider)
	}
}
