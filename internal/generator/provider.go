// Package generator issues generation requests for file analysis and
// validates their structured JSON results.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Common errors
var (
	ErrMissingAPIKey    = errors.New("generation API key is not set")
	ErrProviderFailed   = errors.New("generation provider failed")
	ErrInvalidResponse  = errors.New("invalid generation response")
	ErrEmptyPrompt      = errors.New("prompt cannot be empty")
	ErrNoChoiceReturned = errors.New("no completion choice returned")
)

const (
	// DefaultBaseURL is the chat-completions endpoint root.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
	// DefaultTimeout bounds one generation request.
	DefaultTimeout = 120 * time.Second
	// defaultRequestsPerSecond paces requests below provider rate limits.
	// The admission gate bounds concurrency; this bounds arrival rate.
	defaultRequestsPerSecond = 5
)

// Generator is the generation service boundary: one prompt in, one text
// response out. The model itself is an opaque collaborator.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OpenAIProvider implements Generator against an OpenAI-compatible
// chat-completions API.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ProviderConfig configures an OpenAIProvider.
type ProviderConfig struct {
	APIKey  string
	BaseURL string // optional, DefaultBaseURL when empty
	Model   string // optional, DefaultModel when empty
	Timeout time.Duration
}

// NewOpenAIProvider creates a generation provider.
func NewOpenAIProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &OpenAIProvider{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestsPerSecond),
	}, nil
}

// Model returns the configured model name.
func (p *OpenAIProvider) Model() string { return p.model }

// Generate issues one chat-completion request. The call is a single
// attempt; retry policy belongs to the pipeline governor.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := map[string]interface{}{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.1,
		"max_tokens":  2000,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: api error %d: %s", ErrProviderFailed, resp.StatusCode, string(respBody))
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", ErrNoChoiceReturned
	}
	return apiResp.Choices[0].Message.Content, nil
}
