package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docforge/pkg/types"
)

func testResult(path string, titles ...string) types.FileAnalysisResult {
	res := types.FileAnalysisResult{
		FilePath: path,
		Language: "python",
		Targets:  []string{"file-" + path},
	}
	for _, title := range titles {
		res.Items = append(res.Items, types.AnalysisItem{
			Title:       title,
			Description: "describes " + title,
			Source:      path + ":1-10",
			Language:    "python",
			Code:        "pass",
		})
	}
	return res
}

func readDoc(t *testing.T, path string) document {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc document
	require.NoError(t, json.Unmarshal(data, &doc), "artifact must parse at every checkpoint")
	return doc
}

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	w := NewWriter(t.TempDir(), "myrepo", "run-123", "")
	require.NoError(t, w.Init())
	return w
}

func TestWriterInitSeedsArtifacts(t *testing.T) {
	w := newTestWriter(t)

	md, err := os.ReadFile(w.MarkdownPath())
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Code Analysis Report")
	assert.Contains(t, string(md), "Run ID: run-123")

	doc := readDoc(t, w.JSONPath())
	assert.Equal(t, "myrepo", doc.Repository.Name)
	assert.Empty(t, doc.Files)
	assert.Nil(t, doc.Summary)
}

func TestWriterAppendBeforeInit(t *testing.T) {
	w := NewWriter(t.TempDir(), "r", "id", "")
	err := w.Append(testResult("a.py", "item"))
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestWriterJSONValidAfterEveryAppend(t *testing.T) {
	w := newTestWriter(t)

	for i, path := range []string{"a.py", "b.py", "c.py"} {
		require.NoError(t, w.Append(testResult(path, "thing")))

		doc := readDoc(t, w.JSONPath())
		assert.Len(t, doc.Files, i+1)
		assert.Equal(t, i+1, doc.Statistics.TotalFiles)
		assert.Equal(t, i+1, doc.Statistics.TotalItems)
	}
}

func TestWriterSkipsEmptyResults(t *testing.T) {
	w := newTestWriter(t)

	require.NoError(t, w.Append(testResult("empty.py")))
	require.NoError(t, w.Append(testResult("full.py", "item")))

	doc := readDoc(t, w.JSONPath())
	require.Len(t, doc.Files, 1)
	assert.Equal(t, "full.py", doc.Files[0].FilePath)
	for _, f := range doc.Files {
		assert.NotEmpty(t, f.AnalysisItems)
	}
}

func TestWriterMarkdownItemFormat(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.Append(testResult("src/app.py", "app module")))

	md, err := os.ReadFile(w.MarkdownPath())
	require.NoError(t, err)
	body := string(md)

	assert.Contains(t, body, "## File: src/app.py")
	assert.Contains(t, body, "### Target: file-src/app.py")
	assert.Contains(t, body, "TITLE: app module")
	assert.Contains(t, body, "DESCRIPTION: describes app module")
	assert.Contains(t, body, "SOURCE: src/app.py:1-10")
	assert.Contains(t, body, "SEARCH_TARGET: file-src/app.py")
	assert.Contains(t, body, "LANGUAGE: python")
	assert.Contains(t, body, "----------------------------------------")
}

func TestWriterGroupsItemsByTarget(t *testing.T) {
	w := newTestWriter(t)

	res := testResult("src/app.py", "Parser class", "render function", "module constants")
	res.Targets = []string{"file-src/app.py", "class(Parser)", "function(render)"}
	require.NoError(t, w.Append(res))

	doc := readDoc(t, w.JSONPath())
	require.Len(t, doc.Files, 1)
	byTarget := doc.Files[0].ItemsByTarget

	assert.Len(t, byTarget["class(Parser)"], 1)
	assert.Len(t, byTarget["function(render)"], 1)
	// Unmatched item falls back to the file target.
	assert.Len(t, byTarget["file-src/app.py"], 1)
	assert.Equal(t, 3, doc.Files[0].TargetStatistics.TotalTargets)
}

func TestWriterSourceLinks(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "myrepo", "run-1", "https://github.com/acme/myrepo")
	require.NoError(t, w.Init())
	require.NoError(t, w.Append(testResult("src/app.py", "app module")))

	md, err := os.ReadFile(w.MarkdownPath())
	require.NoError(t, err)
	assert.Contains(t, string(md), "https://github.com/acme/myrepo/blob/main/src/app.py#L1-L10")
}

func TestWriterFinalize(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.Append(testResult("a.py", "one", "two")))
	require.NoError(t, w.Finalize(2, 1))

	doc := readDoc(t, w.JSONPath())
	require.NotNil(t, doc.Summary)
	assert.Equal(t, 3, doc.Summary.TotalFilesProcessed)
	assert.Equal(t, 2, doc.Summary.SuccessfulFiles)
	assert.Equal(t, 1, doc.Summary.FailedFiles)
	assert.Equal(t, "66.7%", doc.Summary.SuccessRate)
	assert.Equal(t, 1, doc.Statistics.ErrorCount)
	assert.NotEmpty(t, doc.Statistics.CompletionTime)

	md, err := os.ReadFile(w.MarkdownPath())
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Analysis Statistics")
	assert.Contains(t, string(md), "Files analyzed successfully: 2")
}

func TestWriterFinalizeWritesBackups(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.Append(testResult("a.py", "item")))
	require.NoError(t, w.Finalize(1, 0))

	backupMD, backupJSON := w.BackupPaths()
	require.NotEmpty(t, backupMD)
	require.NotEmpty(t, backupJSON)

	orig, err := os.ReadFile(w.MarkdownPath())
	require.NoError(t, err)
	backup, err := os.ReadFile(backupMD)
	require.NoError(t, err)
	assert.Equal(t, orig, backup)

	// Backup names carry a timestamp alongside the live artifacts.
	assert.NotEqual(t, filepath.Base(w.JSONPath()), filepath.Base(backupJSON))
	readDoc(t, backupJSON)
}

func TestWriterPartialRunLeavesValidArtifacts(t *testing.T) {
	w := newTestWriter(t)
	require.NoError(t, w.Append(testResult("a.py", "item")))
	// No Finalize: simulate an interrupted run.

	doc := readDoc(t, w.JSONPath())
	assert.Len(t, doc.Files, 1)
	assert.Nil(t, doc.Summary)
}
