package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"catmatch/internal/common"
)

// geminiClient implements Client on top of the Google GenAI SDK.
type geminiClient struct {
	client      *genai.Client
	temperature float32
	maxTokens   int32
}

func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is required", common.ErrNotConfigured)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	temperature := float32(cfg.Temperature)
	if temperature == 0 {
		temperature = 0.2
	}

	return &geminiClient{
		client:      client,
		temperature: temperature,
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

// Complete sends one prompt to the given model and returns the raw text.
func (c *geminiClient) Complete(ctx context.Context, model, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temperature),
		ResponseMIMEType: "application/json",
	}
	if c.maxTokens > 0 {
		config.MaxOutputTokens = c.maxTokens
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty model response", common.ErrMalformedResponse)
	}
	return text, nil
}

// classifyGeminiError maps SDK errors onto the engine's error taxonomy so
// the retry controller can tell permanent failures from transient ones.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("gemini request failed: %w", err)
	}

	switch {
	case apiErr.Code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrInvalidCredential, apiErr.Message)
	case apiErr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", common.ErrAccessDenied, apiErr.Message)
	case apiErr.Code == http.StatusTooManyRequests:
		// RESOURCE_EXHAUSTED covers both hard quota and momentary rate
		// limits; only the former is permanent.
		if strings.Contains(strings.ToLower(apiErr.Message), "quota") {
			return fmt.Errorf("%w: %s", common.ErrQuotaExceeded, apiErr.Message)
		}
		return fmt.Errorf("%w: %s", common.ErrServiceUnavailable, apiErr.Message)
	case apiErr.Code >= 500:
		return fmt.Errorf("%w: %s", common.ErrServiceUnavailable, apiErr.Message)
	default:
		return fmt.Errorf("gemini API error (status %d): %s", apiErr.Code, apiErr.Message)
	}
}
