package notify

import (
	"time"

	"git.home.luguber.info/inful/faustbuild/internal/faust"
)

// Event kinds, appended to the configured subject prefix.
const (
	EventRunStarted   = "started"
	EventInvocation   = "invocation"
	EventRunCompleted = "completed"
)

// RunEvent is the JSON payload published for every lifecycle callback.
type RunEvent struct {
	Kind       string        `json:"kind"`
	RunID      string        `json:"run_id"`
	Root       string        `json:"root"`
	Compiler   string        `json:"compiler"`
	Revision   string        `json:"revision,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	Sources    int           `json:"sources"`
	Succeeded  int           `json:"succeeded"`
	Outcome    string        `json:"outcome,omitempty"`
	Error      string        `json:"error,omitempty"`
	DurationMS int64         `json:"duration_ms,omitempty"`
	Invocation *InvocationEv `json:"invocation,omitempty"`
}

// InvocationEv describes a single compiler invocation inside a RunEvent.
type InvocationEv struct {
	Source     string   `json:"source"`
	Output     string   `json:"output"`
	Command    []string `json:"command"`
	DurationMS int64    `json:"duration_ms"`
	Error      string   `json:"error,omitempty"`
}

func newRunEvent(kind string, r *faust.RunReport, now time.Time) RunEvent {
	return RunEvent{
		Kind:       kind,
		RunID:      r.RunID,
		Root:       r.Root,
		Compiler:   r.Compiler,
		Revision:   r.Revision,
		Timestamp:  now,
		Sources:    r.Sources,
		Succeeded:  r.Succeeded(),
		Outcome:    string(r.Outcome),
		Error:      r.Error,
		DurationMS: r.Duration().Milliseconds(),
	}
}
