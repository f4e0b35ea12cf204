package history

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/faustbuild/internal/faust"
	"git.home.luguber.info/inful/faustbuild/internal/logfields"
)

const recordTimeout = 5 * time.Second

// Observer records every completed run in a Store.
type Observer struct {
	store Store
}

// NewObserver returns a faust.BuildObserver backed by store.
func NewObserver(store Store) *Observer {
	return &Observer{store: store}
}

func (o *Observer) OnRunStart(*faust.RunReport) {}

func (o *Observer) OnInvocationComplete(*faust.RunReport, faust.InvocationReport) {}

// OnRunComplete writes the run. Failures are logged and otherwise ignored.
func (o *Observer) OnRunComplete(report *faust.RunReport) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	run, invs := FromReport(report)
	if err := o.store.Record(ctx, run, invs); err != nil {
		slog.Warn("Failed to record build history", logfields.RunID(report.RunID), logfields.Error(err))
	}
}

// FromReport converts a driver report into history rows.
func FromReport(report *faust.RunReport) (Run, []Invocation) {
	run := Run{
		RunID:      report.RunID,
		Root:       report.Root,
		Compiler:   report.Compiler,
		Revision:   report.Revision,
		StartedAt:  report.Start,
		FinishedAt: report.End,
		Sources:    report.Sources,
		Succeeded:  report.Succeeded(),
		Outcome:    string(report.Outcome),
		Error:      report.Error,
	}
	invs := make([]Invocation, 0, len(report.Invocations))
	for i, ir := range report.Invocations {
		invs = append(invs, Invocation{
			Seq:      i,
			Source:   ir.Source,
			Input:    ir.Input,
			Output:   ir.Output,
			Command:  ir.Command,
			Duration: ir.Duration,
			Error:    ir.Error,
		})
	}
	return run, invs
}
