package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "faustbuild"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	compileDuration *prom.HistogramVec
	compileResults  *prom.CounterVec
	runDuration     prom.Histogram
	runOutcomes     *prom.CounterVec
	sources         prom.Gauge
	lastSuccess     prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		compileDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Duration of individual faust compiler invocations",
			Buckets:   prom.DefBuckets,
		}, []string{"source", "result"}),
		compileResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "compile_results_total",
			Help:      "Compiler invocations by result",
		}, []string{"result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total build run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Build runs by final outcome",
		}, []string{"outcome"}),
		sources: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "sources",
			Help:      "Number of DSP sources discovered by the last run",
		}),
		lastSuccess: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}
	reg.MustRegister(pr.compileDuration, pr.compileResults, pr.runDuration, pr.runOutcomes, pr.sources, pr.lastSuccess)
	return pr
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func (p *PrometheusRecorder) ObserveCompileDuration(source string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := resultLabel(success)
	p.compileDuration.WithLabelValues(source, res).Observe(d.Seconds())
	p.compileResults.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(outcome)).Inc()
	if outcome == OutcomeSuccess {
		p.lastSuccess.SetToCurrentTime()
	}
}

func (p *PrometheusRecorder) SetSources(n int) {
	if p == nil {
		return
	}
	p.sources.Set(float64(n))
}

// WriteTextfile writes everything gathered from g to path atomically,
// creating the parent directory if needed.
func WriteTextfile(g prom.Gatherer, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
