package faust

import (
	"git.home.luguber.info/inful/faustbuild/internal/metrics"
)

// BuildObserver receives callbacks around the run lifecycle. Implementations
// handle their own failures; nothing they do changes the run outcome.
type BuildObserver interface {
	OnRunStart(report *RunReport)
	OnInvocationComplete(report *RunReport, inv InvocationReport)
	OnRunComplete(report *RunReport)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(*RunReport)                             {}
func (NoopObserver) OnInvocationComplete(*RunReport, InvocationReport) {}
func (NoopObserver) OnRunComplete(*RunReport)                          {}

// RecorderObserver adapts metrics.Recorder into a BuildObserver.
type RecorderObserver struct{ Rec metrics.Recorder }

func (r RecorderObserver) OnRunStart(*RunReport) {}

func (r RecorderObserver) OnInvocationComplete(_ *RunReport, inv InvocationReport) {
	if r.Rec != nil {
		r.Rec.ObserveCompileDuration(inv.Source, inv.Duration, !inv.Failed())
	}
}

func (r RecorderObserver) OnRunComplete(report *RunReport) {
	if r.Rec == nil {
		return
	}
	r.Rec.SetSources(report.Sources)
	r.Rec.ObserveRunDuration(report.Duration())
	r.Rec.IncRunOutcome(metrics.OutcomeLabel(report.Outcome))
}

// observers fans callbacks out in registration order.
type observers []BuildObserver

func (o observers) OnRunStart(report *RunReport) {
	for _, obs := range o {
		obs.OnRunStart(report)
	}
}

func (o observers) OnInvocationComplete(report *RunReport, inv InvocationReport) {
	for _, obs := range o {
		obs.OnInvocationComplete(report, inv)
	}
}

func (o observers) OnRunComplete(report *RunReport) {
	for _, obs := range o {
		obs.OnRunComplete(report)
	}
}
