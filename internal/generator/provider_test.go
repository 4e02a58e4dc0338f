package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docforge/pkg/types"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req["model"])

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(ProviderConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewOpenAIProviderDefaults(t *testing.T) {
	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.Model())
}

func TestGenerate(t *testing.T) {
	srv := completionServer(t, "the analysis text")
	defer srv.Close()

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := p.Generate(context.Background(), "analyze this")
	require.NoError(t, err)
	assert.Equal(t, "the analysis text", out)
}

func TestGenerateEmptyPrompt(t *testing.T) {
	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "k"})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrProviderFailed)
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrNoChoiceReturned)
}

func TestBuildPromptIncludesContext(t *testing.T) {
	file := types.SourceFile{Path: "src/app.py", Language: "python", Content: "x = 1"}

	withContext := BuildPrompt(file, "=== Retrieved Context ===\nsomething")
	assert.Contains(t, withContext, "Related context:")
	assert.Contains(t, withContext, "src/app.py:startLine-endLine")
	assert.Contains(t, withContext, "```python\nx = 1\n```")

	without := BuildPrompt(file, "")
	assert.NotContains(t, without, "Related context:")
}
