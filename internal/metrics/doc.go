// Package metrics provides build metrics for faustbuild runs.
//
// Components receive a Recorder through injection. NoopRecorder is the
// default and does nothing; PrometheusRecorder registers collectors on a
// caller-supplied registry. A one-shot CLI run has no scrape endpoint, so the
// registry is exported with WriteTextfile in the node-exporter textfile
// collector format:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	// ... run the build with rec ...
//	err := metrics.WriteTextfile(reg, "/var/lib/node_exporter/faustbuild.prom")
package metrics
