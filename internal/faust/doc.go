// Package faust drives the faust DSP compiler over a project's sources.
//
// A run resolves nothing itself: it receives a config.Layout, creates the
// output directory, discovers *.dsp files directly inside the source
// directory, and invokes the compiler once per source:
//
//	faust -i -a <arch-file> <input.dsp> -o <output-dir>/<name>.h
//
// Invocations are strictly sequential and each one is awaited before the next
// starts. The first failure ends the run; headers produced before it are left
// in place. Every source is rebuilt on every run.
//
// Side concerns (metrics, run history, event notifications) attach through
// BuildObserver and never change the outcome of a run.
package faust
