package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/faustbuild/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	DriverFlags `embed:""`
}

func (b *BuildCmd) Run(g *Global, cli *CLI) error {
	p, err := loadProject(g, cli)
	if err != nil {
		return err
	}
	b.apply(p.cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return RunBuild(ctx, g, p, &b.DriverFlags)
}

// RunBuild performs a single build of project p.
func RunBuild(ctx context.Context, g *Global, p *project, flags *DriverFlags) error {
	s := newSession(g, p, flags)
	defer func() {
		if err := s.Close(); err != nil {
			slog.Warn("Failed to close build session", logfields.Error(err))
		}
	}()

	_, err := s.driver.Run(ctx)
	return err
}
