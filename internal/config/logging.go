package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = newNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.normalize(raw)
}

// Slog maps the level onto slog.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = newNormalizer(map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.normalize(raw)
}

// NewLogger builds the process logger. --verbose forces debug; otherwise
// FAUSTBUILD_LOG_LEVEL applies. FAUSTBUILD_LOG_FORMAT selects text or json.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := NormalizeLogLevel(os.Getenv(EnvLogLevel)).Slog()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if NormalizeLogFormat(os.Getenv(EnvLogFormat)) == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// normalizer maps case-insensitive strings onto enum values with a fallback.
type normalizer[T comparable] struct {
	values   map[string]T
	fallback T
}

func newNormalizer[T comparable](values map[string]T, fallback T) *normalizer[T] {
	n := &normalizer[T]{values: make(map[string]T, len(values)), fallback: fallback}
	for k, v := range values {
		n.values[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return n
}

func (n *normalizer[T]) normalize(raw string) T {
	if v, ok := n.values[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return v
	}
	return n.fallback
}
