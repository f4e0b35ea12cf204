package faust

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/faustbuild/internal/config"
	ferrors "git.home.luguber.info/inful/faustbuild/internal/errors"
	"git.home.luguber.info/inful/faustbuild/internal/logfields"
)

// Driver runs the compiler over every source of a layout.
type Driver struct {
	layout    config.Layout
	compiler  Compiler
	reporter  *Reporter
	observers observers
	revision  string
	now       func() time.Time
}

// NewDriver creates a driver that reports to stdout without color.
func NewDriver(layout config.Layout, compiler Compiler) *Driver {
	return &Driver{
		layout:   layout,
		compiler: compiler,
		reporter: NewReporter(os.Stdout, false),
		now:      time.Now,
	}
}

// WithReporter replaces the console reporter.
func (d *Driver) WithReporter(r *Reporter) *Driver {
	if r != nil {
		d.reporter = r
	}
	return d
}

// WithOutput is shorthand for a plain reporter on w.
func (d *Driver) WithOutput(w io.Writer) *Driver {
	return d.WithReporter(NewReporter(w, false))
}

// WithObserver appends an observer. Nil observers are ignored.
func (d *Driver) WithObserver(o BuildObserver) *Driver {
	if o != nil {
		d.observers = append(d.observers, o)
	}
	return d
}

// WithRevision stamps reports with the source revision of the root.
func (d *Driver) WithRevision(rev string) *Driver {
	d.revision = rev
	return d
}

// Layout returns the layout the driver was built with.
func (d *Driver) Layout() config.Layout { return d.layout }

// Plan discovers sources and returns the invocations a run would perform,
// without touching the filesystem beyond reading the source directory.
func (d *Driver) Plan() ([]Invocation, error) {
	sources, err := Discover(d.layout.SourceDir, d.layout.Pattern)
	if err != nil {
		return nil, ferrors.FileSystemError("discover sources", d.layout.SourceDir, err)
	}
	return Plan(d.layout, sources, d.compiler.Executable()), nil
}

// Run performs one full build. The returned report is never nil; the error is
// a classified *errors.BuildError when the run did not succeed.
func (d *Driver) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:    uuid.NewString(),
		Root:     d.layout.Root,
		Compiler: d.compiler.Executable(),
		Revision: d.revision,
		Start:    d.now(),
	}
	d.observers.OnRunStart(report)

	log := slog.With(logfields.RunID(report.RunID))

	if err := os.MkdirAll(d.layout.OutputDir, 0o755); err != nil {
		return d.finish(log, report, ferrors.FileSystemError("create output directory", d.layout.OutputDir, err))
	}

	invs, err := d.Plan()
	if err != nil {
		return d.finish(log, report, err)
	}
	report.Sources = len(invs)

	log.Debug("Starting DSP build",
		logfields.Root(d.layout.Root),
		logfields.Compiler(report.Compiler),
		logfields.Count(len(invs)))

	for _, inv := range invs {
		if err := ctx.Err(); err != nil {
			return d.finish(log, report, ferrors.Canceled(err))
		}

		d.reporter.Progress(inv)

		start := d.now()
		compileErr := d.compiler.Compile(ctx, inv)
		ir := InvocationReport{
			Source:   inv.Source.Name,
			Input:    inv.Input,
			Output:   inv.Output,
			Command:  inv.CommandLine(),
			Duration: d.now().Sub(start),
		}
		if compileErr != nil {
			ir.Error = compileErr.Error()
		}
		report.Invocations = append(report.Invocations, ir)
		d.observers.OnInvocationComplete(report, ir)

		if compileErr != nil {
			return d.finish(log, report, classify(ctx, inv, compileErr))
		}
		log.Debug("Compiled DSP source",
			logfields.Source(inv.Source.Name),
			logfields.Output(inv.Output),
			logfields.DurationMS(float64(ir.Duration.Microseconds())/1000))
	}

	d.reporter.Complete()
	return d.finish(log, report, nil)
}

// classify maps a compiler error onto the CLI error model. A missing binary
// keeps its own category but is reported like any failed command.
func classify(ctx context.Context, inv Invocation, err error) error {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return ferrors.Canceled(err).WithContext(ferrors.ContextCommand, inv.String())
	case errors.Is(err, ErrCompilerNotFound):
		return ferrors.ToolNotFound(inv.CommandLine(), err)
	default:
		return ferrors.ExternalCommandFailed(inv.CommandLine(), err)
	}
}

func (d *Driver) finish(log *slog.Logger, report *RunReport, err error) (*RunReport, error) {
	report.End = d.now()
	switch {
	case err == nil:
		report.Outcome = OutcomeSuccess
	case ferrors.IsCategory(err, ferrors.CategoryCanceled):
		report.Outcome = OutcomeCanceled
	default:
		report.Outcome = OutcomeFailed
	}
	if err != nil {
		report.Error = err.Error()
	}

	d.observers.OnRunComplete(report)

	attrs := []any{
		logfields.Outcome(string(report.Outcome)),
		logfields.Count(report.Succeeded()),
		logfields.DurationMS(float64(report.Duration().Microseconds()) / 1000),
	}
	if err != nil {
		log.Debug("DSP build did not complete", append(attrs, logfields.Error(err))...)
		return report, err
	}
	log.Debug("DSP build completed", attrs...)
	return report, nil
}
