package faust

import (
	"fmt"
	"time"
)

// Outcome is the final state of a run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// RunReport describes one driver run. It is filled in as the run progresses
// and handed to observers; observers must not modify it.
type RunReport struct {
	RunID       string
	Root        string
	Compiler    string
	Revision    string
	Start       time.Time
	End         time.Time
	Sources     int
	Invocations []InvocationReport
	Outcome     Outcome
	Error       string
}

// Duration is End-Start, or zero while the run is in progress.
func (r *RunReport) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Succeeded counts invocations that completed without error.
func (r *RunReport) Succeeded() int {
	n := 0
	for _, inv := range r.Invocations {
		if inv.Error == "" {
			n++
		}
	}
	return n
}

// InvocationReport records one compiler invocation.
type InvocationReport struct {
	Source   string
	Input    string
	Output   string
	Command  []string
	Duration time.Duration
	Error    string
}

// Failed reports whether the invocation returned an error.
func (i InvocationReport) Failed() bool { return i.Error != "" }

// String summarises a report for log lines and the history listing.
func (r *RunReport) String() string {
	return fmt.Sprintf("%s %s %d/%d sources in %s", r.RunID, r.Outcome, r.Succeeded(), r.Sources, r.Duration().Round(time.Millisecond))
}
