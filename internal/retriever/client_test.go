package retriever

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docforge/pkg/types"
)

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient("")
	assert.ErrorIs(t, err, ErrBaseURLRequired)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)
	assert.NoError(t, c.Health(context.Background()))
}

func TestHealthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)
	assert.ErrorIs(t, c.Health(context.Background()), ErrServiceFailed)
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Parser class python", req["query"])
		assert.Equal(t, "content", req["vector_field"])
		assert.Equal(t, "myindex", req["index"])
		assert.Equal(t, float64(5), req["top_k"])

		_, _ = w.Write([]byte(`{
			"results": [
				{"document": {"title": "parser docs", "content": "how parsing works", "file": "docs/parser.md", "category": "docs"}},
				{"document": {"title": "", "content": "dropped, no title"}},
				{"document": {"title": "legacy", "content": "body", "file_path": "old/path.py"}}
			],
			"total": 3
		}`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	passages, err := c.Search(context.Background(), "Parser class python", "myindex", 5)
	require.NoError(t, err)
	require.Len(t, passages, 2)

	assert.Equal(t, types.Passage{
		Title:    "parser docs",
		Content:  "how parsing works",
		File:     "docs/parser.md",
		Category: "docs",
	}, passages[0])
	// file_path is honored when file is absent.
	assert.Equal(t, "old/path.py", passages[1].File)
}

func TestSearchRequiresIndex(t *testing.T) {
	c, err := NewHTTPClient("http://localhost:9202")
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "q", "", 5)
	assert.ErrorIs(t, err, ErrIndexRequired)
}

func TestSearchServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "q", "idx", 5)
	assert.ErrorIs(t, err, ErrServiceFailed)
}

func TestCreateIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents", r.URL.Path)

		var req struct {
			Documents []IndexDocument `json:"documents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Documents, 2)

		_, _ = w.Write([]byte(`{"index": "idx-20260823", "count": 2}`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	docs := BuildIndexDocuments([]types.SourceFile{
		{Path: "a.py", Language: "python", Content: "x = 1"},
		{Path: "b.py", Language: "python", Content: "y = 2"},
	})
	index, err := c.CreateIndex(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, "idx-20260823", index)
}

func TestCreateIndexRequiresDocuments(t *testing.T) {
	c, err := NewHTTPClient("http://localhost:9202")
	require.NoError(t, err)

	_, err = c.CreateIndex(context.Background(), nil)
	assert.ErrorIs(t, err, ErrServiceFailed)
}

func TestBuildIndexDocumentsTruncatesContent(t *testing.T) {
	long := strings.Repeat("z", maxDocumentContent+500)
	docs := BuildIndexDocuments([]types.SourceFile{{Path: "big.py", Language: "python", Content: long}})

	require.Len(t, docs, 1)
	assert.Len(t, docs[0].Content, maxDocumentContent)
	assert.Equal(t, "code", docs[0].Category)
	assert.Equal(t, "big.py", docs[0].Title)
}

func TestVectorize(t *testing.T) {
	var healthCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			healthCalls++
			w.WriteHeader(http.StatusOK)
		case "/documents":
			_, _ = w.Write([]byte(`{"index": "fresh-index", "count": 1}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	index, err := Vectorize(context.Background(), c, []types.SourceFile{
		{Path: "a.py", Language: "python", Content: "x = 1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh-index", index)
	assert.Equal(t, 1, healthCalls)
}

func TestVectorizeUnhealthyService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	_, err = Vectorize(context.Background(), c, []types.SourceFile{{Path: "a.py", Language: "python", Content: "x"}})
	assert.ErrorIs(t, err, ErrServiceFailed)
}
