package metrics

import "time"

// OutcomeLabel enumerates run outcomes for counters.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for run and per-source compile metrics.
type Recorder interface {
	ObserveCompileDuration(source string, d time.Duration, success bool)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome OutcomeLabel)
	SetSources(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCompileDuration(string, time.Duration, bool) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                   {}
func (NoopRecorder) IncRunOutcome(OutcomeLabel)                         {}
func (NoopRecorder) SetSources(int)                                     {}
