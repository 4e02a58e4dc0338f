package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docforge/pkg/types"
)

// scriptedGenerator returns canned responses in order.
type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func sampleFile() types.SourceFile {
	return types.SourceFile{Path: "src/app.py", Language: "python", Content: "x = 1"}
}

func TestExecutorAnalyze(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{goodResponse}}
	exec := NewExecutor(gen, "")

	items, err := exec.Analyze(context.Background(), sampleFile(), "")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, gen.calls)
}

func TestExecutorAnalyzeSingleAttempt(t *testing.T) {
	providerErr := errors.New("transient outage")
	gen := &scriptedGenerator{errs: []error{providerErr}}
	exec := NewExecutor(gen, "")

	_, err := exec.Analyze(context.Background(), sampleFile(), "")
	assert.ErrorIs(t, err, providerErr)
	// Exactly one call; retries are the caller's policy.
	assert.Equal(t, 1, gen.calls)
}

func TestExecutorAnalyzeInvalidResponse(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"not json at all"}}
	exec := NewExecutor(gen, "")

	_, err := exec.Analyze(context.Background(), sampleFile(), "")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestExecutorDiskCache(t *testing.T) {
	cacheDir := t.TempDir()
	gen := &scriptedGenerator{responses: []string{goodResponse}}
	exec := NewExecutor(gen, cacheDir)

	first, err := exec.Analyze(context.Background(), sampleFile(), "")
	require.NoError(t, err)

	// Second executor with a generator that would fail: the cache answers.
	failing := &scriptedGenerator{errs: []error{errors.New("should not be called")}}
	exec2 := NewExecutor(failing, cacheDir)

	second, err := exec2.Analyze(context.Background(), sampleFile(), "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 0, failing.calls)
}

func TestCacheKeySanitizesPath(t *testing.T) {
	assert.Equal(t, "src_deep_my_module_analysis.json", cacheKey("src/deep/my-module.py"))
	assert.Equal(t, "plain_analysis.json", cacheKey("plain.py"))
}
