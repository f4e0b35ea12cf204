package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeySource     = "source"
	KeyInput      = "input"
	KeyOutput     = "output"
	KeyCompiler   = "compiler"
	KeyRoot       = "root"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyRevision   = "revision"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Source(name string) slog.Attr    { return slog.String(KeySource, name) }
func Input(p string) slog.Attr        { return slog.String(KeyInput, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Compiler(c string) slog.Attr     { return slog.String(KeyCompiler, c) }
func Root(p string) slog.Attr         { return slog.String(KeyRoot, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Revision(r string) slog.Attr     { return slog.String(KeyRevision, r) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
