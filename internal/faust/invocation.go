package faust

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/faustbuild/internal/config"
)

// Invocation is one planned compiler run.
type Invocation struct {
	Source   Source
	Compiler string
	ArchFile string
	Input    string
	Output   string
}

// Args is the argument vector passed to the compiler.
func (i Invocation) Args() []string {
	return []string{"-i", "-a", i.ArchFile, i.Input, "-o", i.Output}
}

// CommandLine is the compiler followed by Args.
func (i Invocation) CommandLine() []string {
	return append([]string{i.Compiler}, i.Args()...)
}

// String renders the command line for display.
func (i Invocation) String() string {
	return strings.Join(i.CommandLine(), " ")
}

// Plan maps each source to exactly one invocation writing
// <OutputDir>/<name>.<HeaderExt>.
func Plan(layout config.Layout, sources []Source, compiler string) []Invocation {
	invs := make([]Invocation, 0, len(sources))
	for _, src := range sources {
		invs = append(invs, Invocation{
			Source:   src,
			Compiler: compiler,
			ArchFile: layout.ArchFile,
			Input:    src.Path,
			Output:   filepath.Join(layout.OutputDir, src.Name+"."+layout.HeaderExt),
		})
	}
	return invs
}
