// Package storage persists completed analysis results. It is the narrow
// "save analysis item" boundary of the pipeline; nothing upstream depends
// on the schema beyond the fields already present on an AnalysisItem.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/docforge/pkg/types"
)

// ErrNotFound is returned when a requested entity doesn't exist
var ErrNotFound = errors.New("not found")

// Repository identifies one analyzed source tree.
type Repository struct {
	ID         int64
	RunID      string
	Name       string
	URL        string
	AnalyzedAt time.Time
}

// Storage defines the interface for persisting analysis results
type Storage interface {
	// SaveRepository records the run's repository identity.
	SaveRepository(ctx context.Context, repo *Repository) error

	// SaveFileAnalysis persists one file's result and all of its items in
	// a single transaction, keyed by the owning file.
	SaveFileAnalysis(ctx context.Context, runID string, res types.FileAnalysisResult) error

	// GetRepository retrieves a repository by run ID.
	GetRepository(ctx context.Context, runID string) (*Repository, error)

	// CountItems returns the number of stored items for a run.
	CountItems(ctx context.Context, runID string) (int, error)

	// Close releases the underlying database handle.
	Close() error
}
