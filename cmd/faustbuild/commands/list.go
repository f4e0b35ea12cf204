package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/faustbuild/internal/faust"
	"git.home.luguber.info/inful/faustbuild/internal/logfields"
)

// ListCmd implements the 'list' command.
type ListCmd struct {
	Compiler string `help:"Compiler executable shown in the plan"`
}

func (l *ListCmd) Run(g *Global, cli *CLI) error {
	p, err := loadProject(g, cli)
	if err != nil {
		return err
	}
	if l.Compiler != "" {
		p.cfg.Compiler = l.Compiler
	}

	driver := faust.NewDriver(p.layout, faust.NewBinaryCompiler(p.cfg.Compiler))
	invs, err := driver.Plan()
	if err != nil {
		return err
	}
	if len(invs) == 0 {
		slog.Info("No DSP sources found", logfields.Path(p.layout.SourceDir))
		return nil
	}

	reporter := faust.NewReporter(g.Stdout, false)
	for _, inv := range invs {
		reporter.Command(inv)
	}
	return nil
}
