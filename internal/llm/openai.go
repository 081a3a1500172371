package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"catmatch/internal/common"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// openAIClient implements Client for any OpenAI-compatible chat completions
// endpoint.
type openAIClient struct {
	httpClient  *http.Client
	apiKey      string
	endpoint    string
	temperature float64
	maxTokens   int
}

func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is required", common.ErrNotConfigured)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	return &openAIClient{
		apiKey:      cfg.APIKey,
		endpoint:    endpoint,
		temperature: temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one prompt to the given model and returns the raw text.
func (c *openAIClient) Complete(ctx context.Context, model, prompt string) (string, error) {
	requestBody := openAIRequest{
		Model: model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPStatus(resp.StatusCode, body)
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", common.ErrMalformedResponse)
	}

	return response.Choices[0].Message.Content, nil
}

// classifyHTTPStatus maps completion endpoint failures onto the engine's
// error taxonomy.
func classifyHTTPStatus(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: check the configured API key (status %d)", common.ErrInvalidCredential, status)
	case status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", common.ErrAccessDenied, status, detail)
	case status == http.StatusTooManyRequests:
		if strings.Contains(detail, "insufficient_quota") {
			return fmt.Errorf("%w: status %d: %s", common.ErrQuotaExceeded, status, detail)
		}
		return fmt.Errorf("%w: rate limited (status %d)", common.ErrServiceUnavailable, status)
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", common.ErrServiceUnavailable, status, detail)
	default:
		return fmt.Errorf("completion API error (status %d): %s", status, detail)
	}
}
