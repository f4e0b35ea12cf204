package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Exit codes returned by the CLI.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitConfig   = 7
	ExitInternal = 10
	ExitCanceled = 130
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	stderr  io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		stderr:  os.Stderr,
		exit:    os.Exit,
	}
}

// WithOutput redirects the diagnostic stream and the exit function (tests).
func (a *CLIErrorAdapter) WithOutput(stderr io.Writer, exit func(int)) *CLIErrorAdapter {
	if stderr != nil {
		a.stderr = stderr
	}
	if exit != nil {
		a.exit = exit
	}
	return a
}

// ExitCodeFor determines the exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	be, ok := As(err)
	if !ok {
		return ExitFailure
	}
	switch be.Category {
	case CategoryCompiler, CategoryToolNotFound, CategoryFileSystem:
		return ExitFailure
	case CategoryValidation:
		return ExitUsage
	case CategoryConfig:
		return ExitConfig
	case CategoryCanceled:
		return ExitCanceled
	case CategoryInternal:
		return ExitInternal
	default:
		return ExitFailure
	}
}

// FormatError formats an error as a single diagnostic line.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	be, ok := As(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}

	switch be.Category {
	case CategoryCompiler, CategoryToolNotFound:
		// A missing binary and a failing compile read the same to the user,
		// with or without --verbose.
		if be.Cause != nil {
			return fmt.Sprintf("Command failed: %v: %v", be.Context[ContextCommand], be.Cause)
		}
		return fmt.Sprintf("Command failed: %v", be.Context[ContextCommand])
	}
	if a.verbose {
		return be.Error()
	}

	switch be.Category {
	case CategoryConfig, CategoryValidation:
		if be.Cause != nil {
			return fmt.Sprintf("%s: %v", be.Message, be.Cause)
		}
		return be.Message
	default:
		if be.Cause != nil {
			return fmt.Sprintf("%s: %s: %v", be.Category, be.Message, be.Cause)
		}
		return fmt.Sprintf("%s: %s", be.Category, be.Message)
	}
}

// HandleError prints the diagnostic line and exits with the mapped code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintln(a.stderr, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if be, ok := As(err); ok {
		return be.Category == CategoryInternal
	}
	return false
}

func (a *CLIErrorAdapter) logError(err error) {
	be, ok := As(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}

	attrs := []slog.Attr{slog.String("category", string(be.Category))}
	for k, v := range be.Context {
		attrs = append(attrs, slog.Any(k, v))
	}
	a.logger.LogAttrs(context.Background(), levelFor(be.Severity), be.Message, attrs...)
}

func levelFor(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
