package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/faustbuild/internal/config"
	ferrors "git.home.luguber.info/inful/faustbuild/internal/errors"
	"git.home.luguber.info/inful/faustbuild/internal/version"
)

// Global carries process-wide state shared by every command.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: <root>/faustbuild.yaml)"`
	Root    string           `help:"Project root (default: $FAUSTBUILD_ROOT or the working directory)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Compile every DSP source into a C++ header (default)"`
	List    ListCmd    `cmd:"" help:"Print the compiler invocations a build would run"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever sources or the architecture file change"`
	History HistoryCmd `cmd:"" help:"Show recent builds from the history database"`
	Init    InitCmd    `cmd:"" help:"Write an example faustbuild.yaml"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	g.setupLogging(c.Verbose)
	return nil
}

// setupLogging (re)builds the process logger from the current environment.
func (g *Global) setupLogging(verbose bool) {
	g.Logger = config.NewLogger(g.Stderr, verbose)
	slog.SetDefault(g.Logger)
}

// Execute parses args, runs the selected command and reports the outcome
// through exit. Diagnostics go to stderr; progress lines go to stdout.
func Execute(args []string, stdout, stderr io.Writer, exit func(int)) {
	cli := &CLI{}
	global := &Global{Logger: slog.Default(), Stdout: stdout, Stderr: stderr}

	parser, err := kong.New(cli,
		kong.Name("faustbuild"),
		kong.Description("Compile Faust DSP sources into C++ headers."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(exit),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err != nil {
		panic(err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "faustbuild: %v\n", err)
		exit(ferrors.ExitUsage)
		return
	}

	runErr := kctx.Run(global, cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).WithOutput(stderr, exit).HandleError(runErr)
}

// project is the resolved root, configuration and layout for one command.
type project struct {
	root   string
	cfg    *config.Config
	layout config.Layout
}

// loadProject resolves the root and loads its configuration. The root's .env
// files may set FAUSTBUILD_LOG_*, so logging is rebuilt once they are loaded.
func loadProject(g *Global, cli *CLI) (*project, error) {
	root, err := config.ResolveRoot(cli.Root)
	if err != nil {
		return nil, ferrors.ValidationFailed("root", err.Error())
	}
	cfg, err := config.Load(root, cli.Config)
	if err != nil {
		return nil, ferrors.ConfigLoadFailed(cli.Config, err)
	}
	g.setupLogging(cli.Verbose)
	return &project{root: root, cfg: cfg, layout: cfg.Layout(root)}, nil
}
