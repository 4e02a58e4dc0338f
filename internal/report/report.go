// Package report maintains the two per-run analysis artifacts: a
// human-readable markdown report and a structured JSON report. Both grow
// incrementally, one append per completed file, so an interrupted run
// leaves a valid partial report behind.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dshills/docforge/pkg/types"
)

// ErrNotInitialized is returned when appending before Init.
var ErrNotInitialized = errors.New("report writer not initialized")

const timestampLayout = "2006-01-02 15:04:05"

// FileRecord is one file's entry in the structured report.
type FileRecord struct {
	FilePath         string                          `json:"file_path"`
	Language         string                          `json:"language"`
	AnalysisItems    []types.AnalysisItem            `json:"analysis_items"`
	ItemsByTarget    map[string][]types.AnalysisItem `json:"analysis_items_by_target"`
	SearchTargets    []string                        `json:"search_targets"`
	TargetStatistics TargetStatistics                `json:"target_statistics"`
	AnalyzedAt       string                          `json:"analysis_timestamp"`
}

// TargetStatistics summarizes item distribution across targets.
type TargetStatistics struct {
	TotalTargets  int            `json:"total_targets"`
	TargetsDetail map[string]int `json:"targets_detail"`
}

// Statistics is the rolling aggregate section of the structured report.
type Statistics struct {
	TotalFiles     int            `json:"total_files"`
	TotalItems     int            `json:"total_snippets"`
	SearchTargets  map[string]int `json:"search_targets"`
	ErrorCount     int            `json:"error_count"`
	CompletionTime string         `json:"completion_time,omitempty"`
}

// Summary is the final roll-up appended on completion.
type Summary struct {
	TotalFilesProcessed int    `json:"total_files_processed"`
	SuccessfulFiles     int    `json:"successful_files"`
	FailedFiles         int    `json:"failed_files"`
	SuccessRate         string `json:"success_rate"`
}

type repositoryInfo struct {
	Name         string `json:"name"`
	RunID        string `json:"run_id"`
	URL          string `json:"url,omitempty"`
	AnalysisTime string `json:"analysis_time"`
}

// document is the full structured report, kept in memory and atomically
// rewritten on every append so the artifact parses validly at any point.
type document struct {
	Repository repositoryInfo `json:"repository"`
	Files      []FileRecord   `json:"files"`
	Statistics Statistics     `json:"statistics"`
	Summary    *Summary       `json:"summary,omitempty"`
}

// Writer appends completed file results to both artifacts under a mutex
// so concurrent file completions never interleave writes.
type Writer struct {
	mu sync.Mutex

	dir     string
	runName string
	runID   string
	repoURL string

	mdPath   string
	jsonPath string

	backupMD   string
	backupJSON string

	doc     document
	started time.Time
	inited  bool
}

// NewWriter creates a report writer for one run. dir is the per-run output
// directory; repoURL, when set, turns source locators into repository
// links in the markdown artifact.
func NewWriter(dir, runName, runID, repoURL string) *Writer {
	return &Writer{
		dir:     dir,
		runName: runName,
		runID:   runID,
		repoURL: repoURL,
	}
}

// MarkdownPath returns the markdown artifact path (valid after Init).
func (w *Writer) MarkdownPath() string { return w.mdPath }

// JSONPath returns the structured artifact path (valid after Init).
func (w *Writer) JSONPath() string { return w.jsonPath }

// BackupPaths returns the backup snapshot paths (valid after Finalize).
func (w *Writer) BackupPaths() (md, jsonPath string) { return w.backupMD, w.backupJSON }

// Init creates the output directory and seeds both artifacts with run
// headers.
func (w *Writer) Init() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	w.started = time.Now()
	w.mdPath = filepath.Join(w.dir, "analysis_report.md")
	w.jsonPath = filepath.Join(w.dir, "analysis_report.json")

	header := fmt.Sprintf("# Code Analysis Report\n\nRepository: %s\nRun ID: %s\nStarted: %s\n\n---\n\n",
		w.runName, w.runID, w.started.Format(timestampLayout))
	if err := os.WriteFile(w.mdPath, []byte(header), 0o644); err != nil {
		return fmt.Errorf("seed markdown report: %w", err)
	}

	w.doc = document{
		Repository: repositoryInfo{
			Name:         w.runName,
			RunID:        w.runID,
			URL:          w.repoURL,
			AnalysisTime: w.started.Format(timestampLayout),
		},
		Files: []FileRecord{},
		Statistics: Statistics{
			SearchTargets: make(map[string]int),
		},
	}
	if err := w.flushJSON(); err != nil {
		return err
	}

	w.inited = true
	return nil
}

// Append writes one completed file's items to both artifacts. It is called
// as soon as the file settles, never batched. Results without items are
// skipped so the report counters always equal the entries appended.
func (w *Writer) Append(res types.FileAnalysisResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.inited {
		return ErrNotInitialized
	}
	if len(res.Items) == 0 {
		return nil
	}

	byTarget, order := groupByTarget(res)

	if err := w.appendMarkdown(res, byTarget, order); err != nil {
		return fmt.Errorf("append markdown: %w", err)
	}

	detail := make(map[string]int, len(byTarget))
	for label, items := range byTarget {
		detail[label] = len(items)
		w.doc.Statistics.SearchTargets[label] += len(items)
	}

	w.doc.Files = append(w.doc.Files, FileRecord{
		FilePath:      res.FilePath,
		Language:      res.Language,
		AnalysisItems: res.Items,
		ItemsByTarget: byTarget,
		SearchTargets: order,
		TargetStatistics: TargetStatistics{
			TotalTargets:  len(byTarget),
			TargetsDetail: detail,
		},
		AnalyzedAt: time.Now().Format(timestampLayout),
	})
	w.doc.Statistics.TotalFiles = len(w.doc.Files)
	w.doc.Statistics.TotalItems += len(res.Items)

	if err := w.flushJSON(); err != nil {
		return fmt.Errorf("append json: %w", err)
	}
	return nil
}

// Finalize appends aggregate statistics to both artifacts and writes one
// immutable timestamped backup copy of each.
func (w *Writer) Finalize(succeeded, failed int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.inited {
		return ErrNotInitialized
	}

	now := time.Now()
	var b strings.Builder
	b.WriteString("\n---\n\n## Analysis Statistics\n\n")
	fmt.Fprintf(&b, "- Files analyzed successfully: %d\n", succeeded)
	fmt.Fprintf(&b, "- Files failed: %d\n", failed)
	fmt.Fprintf(&b, "- Total analysis items: %d\n", w.doc.Statistics.TotalItems)
	fmt.Fprintf(&b, "- Completed: %s\n", now.Format(timestampLayout))
	if err := appendFile(w.mdPath, b.String()); err != nil {
		return fmt.Errorf("finalize markdown: %w", err)
	}

	total := succeeded + failed
	rate := "0%"
	if total > 0 {
		rate = fmt.Sprintf("%.1f%%", float64(succeeded)/float64(total)*100)
	}
	w.doc.Statistics.ErrorCount = failed
	w.doc.Statistics.CompletionTime = now.Format(timestampLayout)
	w.doc.Summary = &Summary{
		TotalFilesProcessed: total,
		SuccessfulFiles:     succeeded,
		FailedFiles:         failed,
		SuccessRate:         rate,
	}
	if err := w.flushJSON(); err != nil {
		return fmt.Errorf("finalize json: %w", err)
	}

	stamp := now.Format("2006-01-02_15-04-05")
	w.backupMD = filepath.Join(w.dir, fmt.Sprintf("analysis_report_%s.md", stamp))
	w.backupJSON = filepath.Join(w.dir, fmt.Sprintf("analysis_report_%s.json", stamp))
	if err := copyFile(w.mdPath, w.backupMD); err != nil {
		return fmt.Errorf("backup markdown: %w", err)
	}
	if err := copyFile(w.jsonPath, w.backupJSON); err != nil {
		return fmt.Errorf("backup json: %w", err)
	}
	return nil
}

// flushJSON atomically rewrites the structured artifact.
func (w *Writer) flushJSON() error {
	data, err := json.MarshalIndent(&w.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	tmp := w.jsonPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, w.jsonPath); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
