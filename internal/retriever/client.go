// Package retriever assembles the deduplicated, per-target retrieval
// context fed into generation prompts.
package retriever

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dshills/docforge/pkg/types"
)

// Common errors
var (
	ErrBaseURLRequired = errors.New("retrieval service base URL is required")
	ErrIndexRequired   = errors.New("knowledge index name is required")
	ErrServiceFailed   = errors.New("retrieval service failed")
)

// DefaultTopK is the number of passages requested per query.
const DefaultTopK = 5

// IndexDocument is one document submitted when building a knowledge index.
type IndexDocument struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	File     string `json:"file"`
	Category string `json:"category"`
	Language string `json:"language"`
}

// Client is the retrieval service boundary. The service itself (embedding,
// indexing, ranking) is an opaque request/response collaborator.
type Client interface {
	// Health probes the service once before a vectorization run.
	Health(ctx context.Context) error
	// Search runs one query against a named index and returns up to topK
	// passages.
	Search(ctx context.Context, query, index string, topK int) ([]types.Passage, error)
	// CreateIndex vectorizes documents into a new index and returns its name.
	CreateIndex(ctx context.Context, docs []IndexDocument) (string, error)
}

// HTTPClient talks to the retrieval service over JSON/HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a retrieval client for the given service address.
func NewHTTPClient(baseURL string) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Health checks the service health endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health returned %d", ErrServiceFailed, resp.StatusCode)
	}
	return nil
}

// Search runs one retrieval query.
func (c *HTTPClient) Search(ctx context.Context, query, index string, topK int) ([]types.Passage, error) {
	if index == "" {
		return nil, ErrIndexRequired
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	reqBody := map[string]interface{}{
		"query":        query,
		"vector_field": "content",
		"index":        index,
		"top_k":        topK,
	}

	var apiResp struct {
		Results []struct {
			Document struct {
				Title    string `json:"title"`
				Content  string `json:"content"`
				File     string `json:"file"`
				FilePath string `json:"file_path"`
				Category string `json:"category"`
			} `json:"document"`
		} `json:"results"`
		Total int `json:"total"`
	}

	if err := c.postJSON(ctx, "/search", reqBody, &apiResp); err != nil {
		return nil, err
	}

	passages := make([]types.Passage, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		if r.Document.Title == "" || r.Document.Content == "" {
			continue
		}
		file := r.Document.File
		if file == "" {
			file = r.Document.FilePath
		}
		passages = append(passages, types.Passage{
			Title:    r.Document.Title,
			Content:  r.Document.Content,
			File:     file,
			Category: r.Document.Category,
		})
	}
	return passages, nil
}

// CreateIndex vectorizes documents into a new knowledge index. Indexing is
// slow; callers should pass a generous context deadline.
func (c *HTTPClient) CreateIndex(ctx context.Context, docs []IndexDocument) (string, error) {
	if len(docs) == 0 {
		return "", fmt.Errorf("%w: no documents to index", ErrServiceFailed)
	}

	reqBody := map[string]interface{}{
		"documents":    docs,
		"vector_field": "content",
	}

	var apiResp struct {
		Index string `json:"index"`
		Count int    `json:"count"`
	}
	if err := c.postJSON(ctx, "/documents", reqBody, &apiResp); err != nil {
		return "", err
	}
	if apiResp.Index == "" {
		return "", fmt.Errorf("%w: no index name returned", ErrServiceFailed)
	}
	return apiResp.Index, nil
}

// postJSON posts a JSON body and decodes a JSON response.
func (c *HTTPClient) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s returned %d: %s", ErrServiceFailed, path, resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
