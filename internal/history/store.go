// Package history persists build runs and their compiler invocations in SQLite.
package history

import (
	"context"
	"time"
)

// Run is one recorded build run.
type Run struct {
	RunID      string
	Root       string
	Compiler   string
	Revision   string
	StartedAt  time.Time
	FinishedAt time.Time
	Sources    int
	Succeeded  int
	Outcome    string
	Error      string
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Invocation is one recorded compiler invocation of a run.
type Invocation struct {
	Seq      int
	Source   string
	Input    string
	Output   string
	Command  []string
	Duration time.Duration
	Error    string
}

// Store defines the interface for persisting and retrieving runs.
type Store interface {
	// Record stores a finished run with its invocations.
	Record(ctx context.Context, run Run, invocations []Invocation) error

	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)

	// Invocations returns the invocations of a run in execution order.
	Invocations(ctx context.Context, runID string) ([]Invocation, error)

	// Close closes the store and releases resources.
	Close() error
}
