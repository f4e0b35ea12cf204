package commands

import (
	"errors"
	"log/slog"

	"github.com/fatih/color"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/faustbuild/internal/config"
	"git.home.luguber.info/inful/faustbuild/internal/faust"
	"git.home.luguber.info/inful/faustbuild/internal/git"
	"git.home.luguber.info/inful/faustbuild/internal/history"
	"git.home.luguber.info/inful/faustbuild/internal/logfields"
	"git.home.luguber.info/inful/faustbuild/internal/metrics"
	"git.home.luguber.info/inful/faustbuild/internal/notify"
)

// DriverFlags are shared by build and watch. Empty values fall back to the
// configuration file.
type DriverFlags struct {
	Compiler    string `help:"Compiler executable (default: faust, or $FAUSTBUILD_COMPILER)"`
	History     string `help:"Record runs in this SQLite database"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this textfile after each run"`
	NATSURL     string `name:"nats-url" help:"Publish run events to this NATS server"`
	NoColor     bool   `name:"no-color" help:"Disable colored progress output"`
}

func (f *DriverFlags) apply(cfg *config.Config) {
	if f.Compiler != "" {
		cfg.Compiler = f.Compiler
	}
	if f.History != "" {
		cfg.History.Path = f.History
	}
	if f.MetricsFile != "" {
		cfg.Metrics.Textfile = f.MetricsFile
	}
	if f.NATSURL != "" {
		cfg.Notify.NATSURL = f.NATSURL
	}
}

// session owns a driver and the optional collaborators wired to it.
type session struct {
	driver  *faust.Driver
	closers []func() error
}

// newSession builds a driver for p. Optional collaborators that fail to
// start are logged and skipped; they never prevent a build.
func newSession(g *Global, p *project, flags *DriverFlags) *session {
	cfg := p.cfg
	compiler := &faust.BinaryCompiler{Path: cfg.Compiler, Stdout: g.Stdout, Stderr: g.Stderr}
	reporter := faust.NewReporter(g.Stdout, !flags.NoColor && !color.NoColor)

	s := &session{driver: faust.NewDriver(p.layout, compiler).WithReporter(reporter)}

	if rev, err := git.ShortRevision(p.root); err != nil {
		slog.Debug("Source revision unavailable", logfields.Root(p.root), logfields.Error(err))
	} else {
		s.driver.WithRevision(rev)
	}

	if path := cfg.Metrics.Textfile; path != "" {
		reg := prom.NewRegistry()
		s.driver.WithObserver(faust.RecorderObserver{Rec: metrics.NewPrometheusRecorder(reg)})
		s.driver.WithObserver(&textfileObserver{gatherer: reg, path: config.ResolvePath(p.root, path)})
	}

	if path := cfg.History.Path; path != "" {
		store, err := history.NewSQLiteStore(config.ResolvePath(p.root, path))
		if err != nil {
			slog.Warn("Build history disabled", logfields.Path(path), logfields.Error(err))
		} else {
			s.driver.WithObserver(history.NewObserver(store))
			s.closers = append(s.closers, store.Close)
		}
	}

	if url := cfg.Notify.NATSURL; url != "" {
		client, err := notify.Connect(url)
		if err != nil {
			slog.Warn("Run notifications disabled", slog.String("url", url), logfields.Error(err))
		} else {
			s.driver.WithObserver(notify.NewObserver(client, cfg.Notify.Subject))
			s.closers = append(s.closers, client.Close)
		}
	}

	return s
}

// Close releases collaborators in reverse order of creation.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// textfileObserver rewrites the metrics textfile after every run.
type textfileObserver struct {
	faust.NoopObserver
	gatherer prom.Gatherer
	path     string
}

func (t *textfileObserver) OnRunComplete(report *faust.RunReport) {
	if err := metrics.WriteTextfile(t.gatherer, t.path); err != nil {
		slog.Warn("Failed to write metrics textfile",
			logfields.RunID(report.RunID),
			logfields.Path(t.path),
			logfields.Error(err))
	}
}
