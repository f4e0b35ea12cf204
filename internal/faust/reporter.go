package faust

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
)

// CompletionMessage is printed once every invocation has succeeded.
const CompletionMessage = "All DSP files generated successfully."

// Reporter writes the user-facing console lines. Logs go through slog; these
// lines are the tool's stdout contract.
type Reporter struct {
	out io.Writer
	tag *color.Color
}

// NewReporter writes to out; colorize highlights the FAUST tag.
func NewReporter(out io.Writer, colorize bool) *Reporter {
	tag := color.New(color.FgCyan, color.Bold)
	if colorize {
		tag.EnableColor()
	} else {
		tag.DisableColor()
	}
	return &Reporter{out: out, tag: tag}
}

// Progress announces one invocation: "FAUST  <input file> -> <output path>".
func (r *Reporter) Progress(inv Invocation) {
	if r == nil {
		return
	}
	fmt.Fprintf(r.out, "%s  %s -> %s\n", r.tag.Sprint("FAUST"), filepath.Base(inv.Input), inv.Output)
}

// Complete prints the completion line.
func (r *Reporter) Complete() {
	if r == nil {
		return
	}
	fmt.Fprintln(r.out, CompletionMessage)
}

// Command prints an invocation's full command line (used by list).
func (r *Reporter) Command(inv Invocation) {
	if r == nil {
		return
	}
	fmt.Fprintln(r.out, inv.String())
}
