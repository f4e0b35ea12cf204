package faust

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/faustbuild/internal/errors"
	ftesting "git.home.luguber.info/inful/faustbuild/internal/testing"
)

func TestBinaryCompiler_Success(t *testing.T) {
	stub := ftesting.InstallStubCompiler(t)
	p := ftesting.NewProject(t).WithSource("sine.dsp", "").WithArchFile()

	invs, err := NewDriver(p.Layout(), NewBinaryCompiler("faust")).Plan()
	require.NoError(t, err)
	require.Len(t, invs, 1)

	require.NoError(t, os.MkdirAll(p.Layout().OutputDir, 0o750))
	bc := NewBinaryCompiler("faust")
	bc.Stdout, bc.Stderr = &bytes.Buffer{}, &bytes.Buffer{}
	require.NoError(t, bc.Compile(context.Background(), invs[0]))

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, invs[0].Args(), calls[0])
	ftesting.NewFileAssertions(t, p.Root()).
		AssertFileContains("include/faust/generated/sine.h", "generated from sine.dsp")
}

func TestBinaryCompiler_NonZeroExit(t *testing.T) {
	ftesting.InstallStubCompiler(t)
	p := ftesting.NewProject(t).WithSource("sine.dsp", "") // no architecture file
	require.NoError(t, os.MkdirAll(p.Layout().OutputDir, 0o750))

	invs := Plan(p.Layout(), []Source{{Name: "sine", Path: filepath.Join(p.Layout().SourceDir, "sine.dsp")}}, "faust")

	var stderr bytes.Buffer
	bc := NewBinaryCompiler("faust")
	bc.Stdout, bc.Stderr = &bytes.Buffer{}, &stderr
	err := bc.Compile(context.Background(), invs[0])

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompileFailed))
	assert.Contains(t, stderr.String(), "architecture file", "compiler stderr passes through")
}

func TestBinaryCompiler_MissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	bc := NewBinaryCompiler("faust")

	err := bc.Compile(context.Background(), Invocation{Compiler: "faust"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCompilerNotFound))
}

func TestNewBinaryCompiler_DefaultPath(t *testing.T) {
	assert.Equal(t, "faust", NewBinaryCompiler("").Executable())
	assert.Equal(t, "/opt/faust", NewBinaryCompiler("/opt/faust").Executable())
}

// Scenario: sine.dsp and noise.dsp with the architecture file present.
func TestDriverWithStub_GeneratesHeaders(t *testing.T) {
	stub := ftesting.InstallStubCompiler(t)
	p := ftesting.NewProject(t).
		WithSource("sine.dsp", "").
		WithSource("noise.dsp", "").
		WithArchFile()

	bc := NewBinaryCompiler("faust")
	bc.Stdout, bc.Stderr = &bytes.Buffer{}, &bytes.Buffer{}
	_, err := NewDriver(p.Layout(), bc).WithOutput(&bytes.Buffer{}).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, stub.Calls(), 2)
	ftesting.NewFileAssertions(t, p.Root()).
		AssertFileContains("include/faust/generated/sine.h", "sine.dsp").
		AssertFileContains("include/faust/generated/noise.h", "noise.dsp")
}

// Scenario: the architecture file is missing. The driver does not pre-check
// it; the compiler is still invoked and its failure ends the run.
func TestDriverWithStub_MissingArchFile(t *testing.T) {
	stub := ftesting.InstallStubCompiler(t)
	p := ftesting.NewProject(t).WithSource("a.dsp", "").WithSource("b.dsp", "")

	bc := NewBinaryCompiler("faust")
	bc.Stdout, bc.Stderr = &bytes.Buffer{}, &bytes.Buffer{}
	_, err := NewDriver(p.Layout(), bc).WithOutput(&bytes.Buffer{}).Run(context.Background())
	require.Error(t, err)

	assert.Len(t, stub.Calls(), 1, "invocation attempted, then fail-fast")
	assert.True(t, ferrors.IsCategory(err, ferrors.CategoryCompiler))
}

func TestDriverWithStub_FailureOnFirstSource(t *testing.T) {
	stub := ftesting.InstallStubCompiler(t)
	stub.FailOn("a.dsp")
	p := ftesting.NewProject(t).WithSource("a.dsp", "").WithSource("b.dsp", "").WithArchFile()

	bc := NewBinaryCompiler("faust")
	bc.Stdout, bc.Stderr = &bytes.Buffer{}, &bytes.Buffer{}
	_, err := NewDriver(p.Layout(), bc).WithOutput(&bytes.Buffer{}).Run(context.Background())
	require.Error(t, err)

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, filepath.Join(p.Layout().SourceDir, "a.dsp"), calls[0][3])
}
