// Package aggregator splits completed file results into successes and
// failures and hands successes to the storage collaborator.
package aggregator

import (
	"context"
	"fmt"
	"log"

	"github.com/dshills/docforge/pkg/types"
)

// Saver is the narrow storage boundary the pipeline depends on: one call
// per completed file, items keyed by their owning file. The relational
// schema behind it is an external concern.
type Saver interface {
	SaveFileAnalysis(ctx context.Context, runID string, res types.FileAnalysisResult) error
}

// Summary is the roll-up of one run's results.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	// Reasons maps failed file paths to their error strings.
	Reasons map[string]string
}

// SuccessRate returns the percentage of files that succeeded.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

// Split partitions results into successes and failures.
func Split(results []types.FileAnalysisResult) (successes, failures []types.FileAnalysisResult) {
	for _, r := range results {
		if r.Failed() {
			failures = append(failures, r)
		} else {
			successes = append(successes, r)
		}
	}
	return successes, failures
}

// Summarize computes the run roll-up, including failure reasons.
func Summarize(results []types.FileAnalysisResult) Summary {
	s := Summary{
		Total:   len(results),
		Reasons: make(map[string]string),
	}
	for _, r := range results {
		if r.Failed() {
			s.Failed++
			s.Reasons[r.FilePath] = r.Err
		} else {
			s.Succeeded++
		}
	}
	return s
}

// Persist hands every successful result to the storage collaborator. A
// failed save is logged and skipped so one bad row never blocks the rest;
// the number of files actually saved is returned.
func Persist(ctx context.Context, store Saver, runID string, successes []types.FileAnalysisResult) (int, error) {
	if store == nil {
		return 0, fmt.Errorf("storage collaborator is required")
	}
	saved := 0
	for _, res := range successes {
		if err := store.SaveFileAnalysis(ctx, runID, res); err != nil {
			log.Printf("warning: failed to save analysis for %s: %v", res.FilePath, err)
			continue
		}
		saved++
	}
	return saved, nil
}
