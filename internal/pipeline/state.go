package pipeline

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// RunState is the explicit per-run state object, owned and passed by the
// orchestrating caller. It replaces any ambient global registry: counters
// are mutated once per completed file and finalized once at run end.
type RunState struct {
	RunID   string
	RunName string

	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	// Artifact paths, filled in when the run finalizes.
	ReportPath     string
	JSONPath       string
	BackupMDPath   string
	BackupJSONPath string
}

// NewRunState creates run state with a fresh run ID.
func NewRunState(runName string) *RunState {
	return &RunState{
		RunID:   uuid.NewString(),
		RunName: runName,
	}
}

// Total returns the number of files that have settled.
func (s *RunState) Total() int { return int(s.total.Load()) }

// Succeeded returns the number of files that completed successfully.
func (s *RunState) Succeeded() int { return int(s.succeeded.Load()) }

// Failed returns the number of files that terminally failed.
func (s *RunState) Failed() int { return int(s.failed.Load()) }

func (s *RunState) recordSuccess() {
	s.total.Add(1)
	s.succeeded.Add(1)
}

func (s *RunState) recordFailure() {
	s.total.Add(1)
	s.failed.Add(1)
}
