package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/faustbuild/internal/config"
	ferrors "git.home.luguber.info/inful/faustbuild/internal/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, cli *CLI) error {
	root, err := config.ResolveRoot(cli.Root)
	if err != nil {
		return ferrors.ValidationFailed("root", err.Error())
	}
	path := cli.Config
	if path == "" {
		path = config.DefaultConfigFile
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	fmt.Fprintf(g.Stdout, "Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		return ferrors.Wrap(err, ferrors.CategoryConfig, ferrors.SeverityFatal, "init failed").
			WithContext(ferrors.ContextPath, path)
	}
	fmt.Fprintln(g.Stdout, "initialized successfully")
	return nil
}
