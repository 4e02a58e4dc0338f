package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dshills/docforge/internal/aggregator"
	"github.com/dshills/docforge/internal/config"
	"github.com/dshills/docforge/internal/extractor"
	"github.com/dshills/docforge/internal/generator"
	"github.com/dshills/docforge/internal/pipeline"
	"github.com/dshills/docforge/internal/report"
	"github.com/dshills/docforge/internal/retriever"
	"github.com/dshills/docforge/internal/scanner"
	"github.com/dshills/docforge/internal/storage"
	"github.com/dshills/docforge/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a source tree and write report artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return runAnalyze(cfg)
	},
}

func runAnalyze(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	files, err := scanner.Scan(cfg.RootPath, scanner.DefaultOptions())
	if err != nil {
		return fmt.Errorf("scan %s: %w", cfg.RootPath, err)
	}
	if len(files) == 0 {
		log.Printf("no analyzable files under %s", cfg.RootPath)
		return nil
	}
	log.Printf("scanned %d files under %s", len(files), cfg.RootPath)

	retr, err := buildRetriever(ctx, cfg, files)
	if err != nil {
		return err
	}

	provider, err := generator.NewOpenAIProvider(generator.ProviderConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}
	exec := generator.NewExecutor(provider, cfg.CacheDir)

	runName := cfg.RepoName
	if runName == "" {
		abs, err := filepath.Abs(cfg.RootPath)
		if err != nil {
			abs = cfg.RootPath
		}
		runName = filepath.Base(abs)
	}
	state := pipeline.NewRunState(runName)
	writer := report.NewWriter(cfg.OutputDir, runName, state.RunID, cfg.RepoURL)

	bar, err := pterm.DefaultProgressbar.
		WithTotal(len(files)).
		WithTitle("Analyzing").
		Start()
	if err != nil {
		return fmt.Errorf("start progress bar: %w", err)
	}

	p := pipeline.New(extractor.NewRegistry(), retr, exec, writer, pipeline.Config{
		Concurrency: int64(cfg.Concurrency),
		ChunkSize:   cfg.ChunkSize,
		Retry: pipeline.RetryConfig{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  500 * time.Millisecond,
			MaxDelay:   30 * time.Second,
			Multiplier: 2.0,
		},
		Progress: func(currentFile string) {
			bar.UpdateTitle(filepath.Base(currentFile))
			bar.Increment()
		},
	})

	results, err := p.Run(ctx, state, files)
	if _, stopErr := bar.Stop(); stopErr != nil {
		log.Printf("progress bar stop failed: %v", stopErr)
	}
	if err != nil {
		return fmt.Errorf("run analysis: %w", err)
	}

	summary := aggregator.Summarize(results)
	log.Printf("run %s complete: %d files, %d succeeded, %d failed (%.1f%% success)",
		state.RunID, summary.Total, summary.Succeeded, summary.Failed, summary.SuccessRate())
	log.Printf("report: %s", state.ReportPath)
	log.Printf("data:   %s", state.JSONPath)

	if cfg.DatabasePath != "" {
		if err := persistResults(ctx, cfg, state, results, runName); err != nil {
			// Artifacts are already on disk; persistence is best effort.
			log.Printf("persist results: %v", err)
		}
	}
	return nil
}

// buildRetriever connects to the knowledge service when one is
// configured. A missing index name means the source tree has not been
// indexed yet, so we index it first.
func buildRetriever(ctx context.Context, cfg *config.Config, files []types.SourceFile) (*retriever.Retriever, error) {
	if !cfg.RetrievalEnabled() {
		log.Printf("no knowledge service configured, analyzing without retrieval context")
		return nil, nil
	}

	client, err := retriever.NewHTTPClient(cfg.RAGBaseURL)
	if err != nil {
		return nil, fmt.Errorf("create knowledge client: %w", err)
	}

	index := cfg.IndexName
	if index == "" {
		log.Printf("indexing %d files into the knowledge service", len(files))
		index, err = retriever.Vectorize(ctx, client, files)
		if err != nil {
			log.Printf("indexing failed, analyzing without retrieval context: %v", err)
			return nil, nil
		}
	}

	retr, err := retriever.New(client, index, cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("create retriever: %w", err)
	}
	return retr, nil
}

func persistResults(ctx context.Context, cfg *config.Config, state *pipeline.RunState, results []types.FileAnalysisResult, runName string) error {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Printf("close storage: %v", cerr)
		}
	}()

	if err := store.SaveRepository(ctx, &storage.Repository{
		RunID:      state.RunID,
		Name:       runName,
		URL:        cfg.RepoURL,
		AnalyzedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}

	successes, _ := aggregator.Split(results)
	saved, err := aggregator.Persist(ctx, store, state.RunID, successes)
	if err != nil {
		return err
	}
	log.Printf("persisted %d file analyses to %s", saved, cfg.DatabasePath)
	return nil
}
