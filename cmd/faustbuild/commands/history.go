package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/faustbuild/internal/config"
	ferrors "git.home.luguber.info/inful/faustbuild/internal/errors"
	"git.home.luguber.info/inful/faustbuild/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Path  string `help:"History database (default: history.path from the configuration)"`
	Limit int    `short:"n" help:"Number of runs to show" default:"10"`
	RunID string `name:"run" help:"Show the invocations of this run ID"`
}

func (h *HistoryCmd) Run(g *Global, cli *CLI) error {
	p, err := loadProject(g, cli)
	if err != nil {
		return err
	}
	path := h.Path
	if path == "" {
		path = p.cfg.History.Path
	}
	if path == "" {
		return ferrors.ValidationFailed("history.path", "no history database configured (set history.path or pass --path)")
	}

	store, err := history.NewSQLiteStore(config.ResolvePath(p.root, path))
	if err != nil {
		return ferrors.FileSystemError("open history", path, err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()

	if h.RunID != "" {
		invs, err := store.Invocations(ctx, h.RunID)
		if err != nil {
			return ferrors.InternalError("read history", err)
		}
		fmt.Fprintln(tw, "#\tSOURCE\tDURATION\tRESULT")
		for _, inv := range invs {
			result := "ok"
			if inv.Error != "" {
				result = inv.Error
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", inv.Seq+1, inv.Source, inv.Duration.Round(time.Millisecond), result)
		}
		return nil
	}

	runs, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return ferrors.InternalError("read history", err)
	}
	fmt.Fprintln(tw, "RUN\tSTARTED\tOUTCOME\tSOURCES\tDURATION\tREVISION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			r.RunID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Outcome,
			r.Succeeded, r.Sources,
			r.Duration().Round(time.Millisecond),
			r.Revision)
	}
	return nil
}
