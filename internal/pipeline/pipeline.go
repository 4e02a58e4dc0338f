// Package pipeline coordinates the retrieval-augmented analysis run:
// chunking the file set, bounding in-flight generation calls, retrying
// transient failures, and reporting each file as it settles.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/dshills/docforge/internal/extractor"
	"github.com/dshills/docforge/internal/generator"
	"github.com/dshills/docforge/internal/report"
	"github.com/dshills/docforge/internal/retriever"
	"github.com/dshills/docforge/pkg/types"
)

const (
	// DefaultConcurrency caps simultaneously in-flight generation calls.
	DefaultConcurrency = 25
	// DefaultChunkSize is the number of files launched per chunk.
	DefaultChunkSize = 50
)

// stage names the per-file state machine positions, used for debug logs.
type stage string

const (
	stageExtracted  stage = "extracted"
	stageRetrieving stage = "retrieving"
	stageGenerating stage = "generating"
	stageSucceeded  stage = "succeeded"
	stageFailed     stage = "failed"
	stageReported   stage = "reported"
)

// ProgressFunc is invoked after each file settles, success or failure.
// Panics inside the callback are recovered and logged, never propagated.
type ProgressFunc func(currentFile string)

// Config configures the governor.
type Config struct {
	// Concurrency is the admission-gate ceiling. Zero means
	// DefaultConcurrency.
	Concurrency int64
	// ChunkSize partitions the file list; chunks run strictly
	// sequentially. Zero means DefaultChunkSize.
	ChunkSize int
	// Retry configures the per-file generation retry policy.
	Retry RetryConfig
	// Progress is the per-file completion callback, optional.
	Progress ProgressFunc
}

// Pipeline wires the extractor registry, retriever, executor, and report
// writer into one bounded-concurrency run.
type Pipeline struct {
	registry *extractor.Registry
	retr     *retriever.Retriever // nil disables retrieval; context degrades to empty
	exec     *generator.Executor
	writer   *report.Writer

	gate *semaphore.Weighted
	cfg  Config
}

// New creates a Pipeline. retr may be nil when no knowledge index is
// available; files are then analyzed with empty retrieval context.
func New(registry *extractor.Registry, retr *retriever.Retriever, exec *generator.Executor, writer *report.Writer, cfg Config) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Retry.MaxRetries <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	return &Pipeline{
		registry: registry,
		retr:     retr,
		exec:     exec,
		writer:   writer,
		gate:     semaphore.NewWeighted(cfg.Concurrency),
		cfg:      cfg,
	}
}

// Run processes every file and returns one FileAnalysisResult per input
// file, in input order. Files inside one chunk run concurrently, bounded
// by the admission gate; the whole chunk is awaited before the next
// starts. No single file failure halts the run: failures become failure
// results and the batch continues.
func (p *Pipeline) Run(ctx context.Context, state *RunState, files []types.SourceFile) ([]types.FileAnalysisResult, error) {
	if err := p.writer.Init(); err != nil {
		return nil, fmt.Errorf("initialize report: %w", err)
	}
	state.ReportPath = p.writer.MarkdownPath()
	state.JSONPath = p.writer.JSONPath()

	results := make([]types.FileAnalysisResult, len(files))

	for start := 0; start < len(files); start += p.cfg.ChunkSize {
		end := start + p.cfg.ChunkSize
		if end > len(files) {
			end = len(files)
		}

		g := new(errgroup.Group)
		for i := start; i < end; i++ {
			idx := i
			file := files[i]
			g.Go(func() error {
				if err := p.gate.Acquire(ctx, 1); err != nil {
					results[idx] = failureResult(file, err)
				} else {
					results[idx] = p.processFile(ctx, file)
					p.gate.Release(1)
				}
				p.settle(state, &results[idx])
				return nil
			})
		}
		// Await the entire chunk before starting the next; this caps peak
		// outstanding work even when chunk size exceeds the gate ceiling.
		_ = g.Wait()
	}

	if err := p.writer.Finalize(state.Succeeded(), state.Failed()); err != nil {
		log.Printf("error: failed to finalize report: %v", err)
	}
	state.BackupMDPath, state.BackupJSONPath = p.writer.BackupPaths()

	return results, nil
}

// processFile walks one file through extract → retrieve → generate.
func (p *Pipeline) processFile(ctx context.Context, file types.SourceFile) types.FileAnalysisResult {
	st := p.registry.Extract(file.Language, file.Content)
	log.Printf("%s: %s (%d classes, %d functions)", file.Path, stageExtracted, len(st.Classes), len(st.Functions))

	var contextBlock string
	var targets []string
	if p.retr != nil {
		log.Printf("%s: %s", file.Path, stageRetrieving)
		rc := p.retr.Retrieve(ctx, file, st)
		contextBlock = rc.Render()
		targets = rc.Targets
	} else {
		for _, q := range retriever.BuildQueries(file, st) {
			targets = append(targets, q.Target.Label())
		}
	}

	res := types.FileAnalysisResult{
		FilePath: file.Path,
		Language: file.Language,
		Targets:  targets,
	}

	log.Printf("%s: %s", file.Path, stageGenerating)
	items, err := retryWithBackoff(ctx, p.cfg.Retry, func() ([]types.AnalysisItem, error) {
		return p.exec.Analyze(ctx, file, contextBlock)
	})
	if err != nil {
		log.Printf("%s: %s after %d attempts: %v", file.Path, stageFailed, p.cfg.Retry.MaxRetries, err)
		res.Err = err.Error()
		return res
	}

	log.Printf("%s: %s (%d items)", file.Path, stageSucceeded, len(items))
	res.Items = items
	return res
}

// settle records the result, appends it to the report artifacts, and fires
// the progress callback. A report append failure marks the file failed so
// the run statistics never overstate what landed on disk.
func (p *Pipeline) settle(state *RunState, res *types.FileAnalysisResult) {
	if !res.Failed() {
		if err := p.writer.Append(*res); err != nil {
			log.Printf("error: report append failed for %s: %v", res.FilePath, err)
			res.Err = fmt.Sprintf("report append failed: %v", err)
			res.Items = nil
		}
	}

	if res.Failed() {
		state.recordFailure()
	} else {
		state.recordSuccess()
	}
	log.Printf("%s: %s", res.FilePath, stageReported)

	p.notify(res.FilePath)
}

// notify fires the progress callback, recovering panics.
func (p *Pipeline) notify(path string) {
	if p.cfg.Progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("warning: progress callback panicked for %s: %v", path, r)
		}
	}()
	p.cfg.Progress(path)
}

func failureResult(file types.SourceFile, err error) types.FileAnalysisResult {
	return types.FileAnalysisResult{
		FilePath: file.Path,
		Language: file.Language,
		Err:      err.Error(),
	}
}
