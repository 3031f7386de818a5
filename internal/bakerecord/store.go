// Package bakerecord keeps a history of site bakes: one run per bake and one
// entry per baked page, with the files it produced and its source fingerprint.
package bakerecord

import (
	"context"
	"time"
)

// Outcome labels a finished run.
type Outcome string

const (
	OutcomeRunning  Outcome = "running"
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Run summarizes one site bake.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	Pages      int
	Files      int
	Failures   int
}

// Duration returns how long the run took, or 0 while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Entry is the record of one page bake within a run.
type Entry struct {
	RunID              string
	URI                string
	SourcePath         string
	Fingerprint        string
	Files              []string
	Assets             int
	PaginationAccessed bool
	Duration           time.Duration
	// Error is the bake error message; empty on success.
	Error   string
	BakedAt time.Time
}

// Failed reports whether the page failed to bake.
func (e Entry) Failed() bool { return e.Error != "" }

// Store persists runs and their entries.
type Store interface {
	// BeginRun records the start of a run.
	BeginRun(ctx context.Context, runID string, startedAt time.Time) error

	// Append adds an entry to its run.
	Append(ctx context.Context, entry Entry) error

	// FinishRun closes a run and stores its totals, computed from its entries.
	FinishRun(ctx context.Context, runID string, outcome Outcome, finishedAt time.Time) (Run, error)

	// Run returns one run.
	Run(ctx context.Context, runID string) (Run, error)

	// Runs returns the most recent runs, newest first.
	Runs(ctx context.Context, limit int) ([]Run, error)

	// Entries returns a run's entries in bake order.
	Entries(ctx context.Context, runID string) ([]Entry, error)

	// LastRunID returns the ID of the newest finished run, or "" when there is none.
	LastRunID(ctx context.Context) (string, error)

	// Close closes the store and releases resources.
	Close() error
}
