package faust

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"git.home.luguber.info/inful/faustbuild/internal/config"
	"git.home.luguber.info/inful/faustbuild/internal/logfields"
)

var (
	// ErrCompilerNotFound indicates the compiler binary could not be located or started.
	ErrCompilerNotFound = errors.New("compiler not found")
	// ErrCompileFailed indicates the compiler exited with a non-zero status.
	ErrCompileFailed = errors.New("compilation failed")
)

// Compiler runs one invocation to completion.
type Compiler interface {
	// Executable is the name or path recorded as argv[0] of each invocation.
	Executable() string
	Compile(ctx context.Context, inv Invocation) error
}

// BinaryCompiler invokes an external compiler binary found on PATH (or at an
// explicit path). The child's output streams pass through to Stdout/Stderr.
type BinaryCompiler struct {
	Path   string
	Stdout io.Writer
	Stderr io.Writer
}

// NewBinaryCompiler returns a compiler wired to the process stdio. An empty
// path selects the default faust binary.
func NewBinaryCompiler(path string) *BinaryCompiler {
	if path == "" {
		path = config.DefaultCompiler
	}
	return &BinaryCompiler{Path: path, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (b *BinaryCompiler) Executable() string { return b.Path }

// Compile blocks until the compiler exits. There is no timeout; cancelling
// ctx kills the child.
func (b *BinaryCompiler) Compile(ctx context.Context, inv Invocation) error {
	bin, err := exec.LookPath(b.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCompilerNotFound, err)
	}

	// #nosec G204 -- bin comes from exec.LookPath; args are paths derived from the layout
	cmd := exec.CommandContext(ctx, bin, inv.Args()...)
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr

	slog.Debug("Invoking compiler",
		logfields.Compiler(bin),
		logfields.Input(inv.Input),
		logfields.Output(inv.Output))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %w", ErrCompileFailed, err)
		}
		return fmt.Errorf("%w: %w", ErrCompilerNotFound, err)
	}
	return nil
}
