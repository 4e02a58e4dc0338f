package generator

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/docforge/pkg/types"
)

// Executor turns one source file plus its retrieval context into validated
// analysis items via a single generation call. Retry policy is owned by
// the pipeline governor; Analyze performs exactly one attempt.
type Executor struct {
	gen      Generator
	cacheDir string // optional on-disk response cache, "" disables
}

// NewExecutor creates an Executor. cacheDir enables a per-file response
// cache keyed by sanitized path; pass "" to disable.
func NewExecutor(gen Generator, cacheDir string) *Executor {
	return &Executor{gen: gen, cacheDir: cacheDir}
}

// Analyze issues one generation request for the file and parses the
// result. Transient failures are returned as errors so the governor can
// retry.
func (e *Executor) Analyze(ctx context.Context, file types.SourceFile, retrievalContext string) ([]types.AnalysisItem, error) {
	if cached, ok := e.loadCache(file.Path); ok {
		log.Printf("using cached analysis for %s", file.Path)
		return cached, nil
	}

	prompt := BuildPrompt(file, retrievalContext)
	response, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	items, err := ParseItems(response, file.Path)
	if err != nil {
		return nil, err
	}

	e.storeCache(file.Path, items)
	return items, nil
}

// cacheKey converts a file path into a safe cache file name.
func cacheKey(path string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_", "-", "_")
	safe := replacer.Replace(path)
	if dot := strings.LastIndex(safe, "."); dot > 0 {
		safe = safe[:dot]
	}
	return safe + "_analysis.json"
}

func (e *Executor) loadCache(path string) ([]types.AnalysisItem, bool) {
	if e.cacheDir == "" {
		return nil, false
	}
	data, err := os.ReadFile(filepath.Join(e.cacheDir, cacheKey(path)))
	if err != nil {
		return nil, false
	}
	var items []types.AnalysisItem
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("warning: discarding corrupt analysis cache for %s: %v", path, err)
		return nil, false
	}
	return items, true
}

func (e *Executor) storeCache(path string, items []types.AnalysisItem) {
	if e.cacheDir == "" || len(items) == 0 {
		return
	}
	if err := os.MkdirAll(e.cacheDir, 0o755); err != nil {
		log.Printf("warning: failed to create analysis cache dir: %v", err)
		return
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(e.cacheDir, cacheKey(path)), data, 0o644); err != nil {
		log.Printf("warning: failed to write analysis cache for %s: %v", path, err)
	}
}
