package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	ferrors "git.home.luguber.info/inful/faustbuild/internal/errors"
	"git.home.luguber.info/inful/faustbuild/internal/logfields"
	"git.home.luguber.info/inful/faustbuild/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	DriverFlags `embed:""`

	Every    time.Duration `help:"Also rebuild on this interval (e.g. 10m)"`
	Debounce time.Duration `help:"Quiet period after a change before rebuilding (default 300ms)"`
}

func (w *WatchCmd) Run(g *Global, cli *CLI) error {
	p, err := loadProject(g, cli)
	if err != nil {
		return err
	}
	w.apply(p.cfg)
	if w.Every != 0 {
		p.cfg.Watch.RebuildEvery = w.Every
	}
	if w.Debounce != 0 {
		p.cfg.Watch.Debounce = w.Debounce
	}
	if err := p.cfg.Validate(); err != nil {
		return ferrors.ValidationFailed("watch", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return RunWatch(ctx, g, p, &w.DriverFlags)
}

// RunWatch blocks until ctx is done, rebuilding p on every change.
func RunWatch(ctx context.Context, g *Global, p *project, flags *DriverFlags) error {
	s := newSession(g, p, flags)
	defer func() {
		if err := s.Close(); err != nil {
			slog.Warn("Failed to close watch session", logfields.Error(err))
		}
	}()

	w := watch.New(s.driver, p.layout, watch.Options{
		Debounce:     p.cfg.Watch.Debounce,
		RebuildEvery: p.cfg.Watch.RebuildEvery,
	})
	if err := w.Run(ctx); err != nil {
		return ferrors.FileSystemError("watch", p.layout.SourceDir, err)
	}
	slog.Info("Watch stopped")
	return nil
}
