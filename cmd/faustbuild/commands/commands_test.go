package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/faustbuild/internal/config"
	ferrors "git.home.luguber.info/inful/faustbuild/internal/errors"
	ftesting "git.home.luguber.info/inful/faustbuild/internal/testing"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := ferrors.ExitOK
	exited := false
	Execute(args, &stdout, &stderr, func(c int) {
		if !exited {
			code = c
			exited = true
		}
	})
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func cleanEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvRoot, "")
	t.Setenv(config.EnvCompiler, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv(config.EnvLogFormat, "")
}

func dspProject(t *testing.T) *ftesting.ProjectBuilder {
	t.Helper()
	return ftesting.NewProject(t).
		WithSource("sine.dsp", "process = os.osc(440);").
		WithSource("noise.dsp", "process = no.noise;").
		WithArchFile()
}

func TestBuild_DefaultCommandCompilesEverySource(t *testing.T) {
	cleanEnv(t)
	stub := ftesting.InstallStubCompiler(t)
	p := dspProject(t)

	res := run(t, "--root", p.Root())

	require.Equal(t, ferrors.ExitOK, res.code, res.stderr)
	out := p.Layout().OutputDir
	assert.Equal(t,
		"FAUST  noise.dsp -> "+filepath.Join(out, "noise.h")+"\n"+
			"FAUST  sine.dsp -> "+filepath.Join(out, "sine.h")+"\n"+
			"All DSP files generated successfully.\n",
		res.stdout)
	assert.Len(t, stub.Calls(), 2)

	ftesting.NewFileAssertions(t, p.Root()).
		AssertFileContains("include/faust/generated/sine.h", "sine.dsp").
		AssertFileContains("include/faust/generated/noise.h", "noise.dsp")
}

func TestBuild_ExplicitSubcommand(t *testing.T) {
	cleanEnv(t)
	ftesting.InstallStubCompiler(t)
	p := dspProject(t)

	res := run(t, "build", "--root", p.Root(), "--no-color")
	require.Equal(t, ferrors.ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "All DSP files generated successfully.")
}

func TestBuild_RootFromEnvironment(t *testing.T) {
	cleanEnv(t)
	ftesting.InstallStubCompiler(t)
	p := dspProject(t)
	t.Setenv(config.EnvRoot, p.Root())

	res := run(t)
	require.Equal(t, ferrors.ExitOK, res.code, res.stderr)
	ftesting.NewFileAssertions(t, p.Root()).AssertFileCount("include/faust/generated", 2)
}

func TestBuild_EmptySourceDirSucceeds(t *testing.T) {
	cleanEnv(t)
	stub := ftesting.InstallStubCompiler(t)
	p := ftesting.NewProject(t).WithSourceDir().WithArchFile()

	res := run(t, "--root", p.Root())

	require.Equal(t, ferrors.ExitOK, res.code)
	assert.Equal(t, "All DSP files generated successfully.\n", res.stdout)
	assert.Empty(t, stub.Calls())
	ftesting.NewFileAssertions(t, p.Root()).AssertDirExists("include/faust/generated")
}

func TestBuild_CompilerFailureStopsAndExitsOne(t *testing.T) {
	cleanEnv(t)
	stub := ftesting.InstallStubCompiler(t)
	stub.FailOn("noise.dsp")
	p := dspProject(t)

	res := run(t, "--root", p.Root())

	assert.Equal(t, ferrors.ExitFailure, res.code)
	assert.Len(t, stub.Calls(), 1, "first failure stops further invocations")
	assert.NotContains(t, res.stdout, "All DSP files generated successfully.")

	lines := strings.Split(strings.TrimRight(res.stderr, "\n"), "\n")
	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, "Command failed: faust -i -a "), last)
	assert.Contains(t, last, filepath.Join(p.Layout().SourceDir, "noise.dsp"))
	ftesting.NewFileAssertions(t, p.Root()).AssertFileNotExists("include/faust/generated/sine.h")
}

func TestBuild_MissingArchFileFailsAtInvocation(t *testing.T) {
	cleanEnv(t)
	stub := ftesting.InstallStubCompiler(t)
	p := ftesting.NewProject(t).WithSource("sine.dsp", "process = _;")

	res := run(t, "--root", p.Root())

	assert.Equal(t, ferrors.ExitFailure, res.code)
	assert.Len(t, stub.Calls(), 1)
	assert.Contains(t, res.stderr, "unable to open architecture file")
}

func TestBuild_CompilerNotFound(t *testing.T) {
	cleanEnv(t)
	p := dspProject(t)

	res := run(t, "--root", p.Root(), "--compiler", "faust-does-not-exist-1f3a")

	assert.Equal(t, ferrors.ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Command failed: faust-does-not-exist-1f3a -i -a ")
}

func TestBuild_CompilerRelativeToRoot(t *testing.T) {
	cleanEnv(t)
	p := dspProject(t).WithFile("faustbuild.yaml", "compiler: tools/faust\n")
	stub := ftesting.WriteStubCompiler(t, filepath.Join(p.Root(), "tools", "faust"))
	t.Chdir(t.TempDir())

	res := run(t, "--root", p.Root())

	require.Equal(t, ferrors.ExitOK, res.code, res.stderr)
	assert.Len(t, stub.Calls(), 2)
	ftesting.NewFileAssertions(t, p.Root()).AssertFileCount("include/faust/generated", 2)
}

func TestBuild_VerboseCompilerFailureKeepsCommand(t *testing.T) {
	cleanEnv(t)
	stub := ftesting.InstallStubCompiler(t)
	stub.FailOn("noise.dsp")
	p := dspProject(t)

	res := run(t, "--root", p.Root(), "-v")

	assert.Equal(t, ferrors.ExitFailure, res.code)
	lines := strings.Split(strings.TrimRight(res.stderr, "\n"), "\n")
	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, "Command failed: faust -i -a "), last)
	assert.Contains(t, last, filepath.Join(p.Layout().SourceDir, "noise.dsp"))
}

func TestBuild_LogSettingsFromEnvFile(t *testing.T) {
	cleanEnv(t)
	ftesting.InstallStubCompiler(t)
	p := dspProject(t).WithFile(".env", "FAUSTBUILD_LOG_LEVEL=debug\nFAUSTBUILD_LOG_FORMAT=json\n")
	// godotenv never overrides a key that is present, even when empty.
	require.NoError(t, os.Unsetenv(config.EnvLogLevel))
	require.NoError(t, os.Unsetenv(config.EnvLogFormat))

	res := run(t, "--root", p.Root())

	require.Equal(t, ferrors.ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stderr, `"msg":"Starting DSP build"`)
}

func TestBuild_MetricsAndHistory(t *testing.T) {
	cleanEnv(t)
	ftesting.InstallStubCompiler(t)
	p := dspProject(t)

	res := run(t, "--root", p.Root(), "--metrics-file", "metrics/faustbuild.prom", "--history", ".faustbuild/history.db")
	require.Equal(t, ferrors.ExitOK, res.code, res.stderr)

	ftesting.NewFileAssertions(t, p.Root()).
		AssertFileContains("metrics/faustbuild.prom", "faustbuild_sources 2").
		AssertFileExists(".faustbuild/history.db")

	hist := run(t, "--root", p.Root(), "history", "--path", ".faustbuild/history.db")
	require.Equal(t, ferrors.ExitOK, hist.code, hist.stderr)
	assert.Contains(t, hist.stdout, "success")
	assert.Contains(t, hist.stdout, "2/2")
}

func TestBuild_HistoryFromConfigFile(t *testing.T) {
	cleanEnv(t)
	ftesting.InstallStubCompiler(t)
	p := dspProject(t).WithFile("faustbuild.yaml", "history:\n  path: state/runs.db\n")

	require.Equal(t, ferrors.ExitOK, run(t, "--root", p.Root()).code)
	require.Equal(t, ferrors.ExitOK, run(t, "--root", p.Root()).code)

	hist := run(t, "--root", p.Root(), "history", "-n", "1")
	require.Equal(t, ferrors.ExitOK, hist.code, hist.stderr)
	lines := strings.Split(strings.TrimRight(hist.stdout, "\n"), "\n")
	assert.Len(t, lines, 2, "header plus one run")
}

func TestHistory_NotConfigured(t *testing.T) {
	cleanEnv(t)
	p := ftesting.NewProject(t)

	res := run(t, "--root", p.Root(), "history")
	assert.Equal(t, ferrors.ExitUsage, res.code)
	assert.Contains(t, res.stderr, "history.path")
}

func TestList_PrintsPlanWithoutBuilding(t *testing.T) {
	cleanEnv(t)
	stub := ftesting.InstallStubCompiler(t)
	p := dspProject(t)

	res := run(t, "--root", p.Root(), "list")

	require.Equal(t, ferrors.ExitOK, res.code, res.stderr)
	l := p.Layout()
	want := strings.Join([]string{"faust", "-i", "-a", l.ArchFile,
		filepath.Join(l.SourceDir, "noise.dsp"), "-o", filepath.Join(l.OutputDir, "noise.h")}, " ")
	assert.Equal(t, want, strings.Split(res.stdout, "\n")[0])
	assert.Empty(t, stub.Calls())
	ftesting.NewFileAssertions(t, p.Root()).AssertFileNotExists("include/faust/generated")
}

func TestInit_WritesConfigOnce(t *testing.T) {
	cleanEnv(t)
	p := ftesting.NewProject(t)

	res := run(t, "--root", p.Root(), "init")
	require.Equal(t, ferrors.ExitOK, res.code, res.stderr)
	ftesting.NewFileAssertions(t, p.Root()).AssertFileContains("faustbuild.yaml", "source_dir: faust_dsp")

	again := run(t, "--root", p.Root(), "init")
	assert.Equal(t, ferrors.ExitConfig, again.code)
	assert.Contains(t, again.stderr, "already exists")

	forced := run(t, "--root", p.Root(), "init", "--force")
	assert.Equal(t, ferrors.ExitOK, forced.code)

	// The generated file must load back cleanly.
	_, err := config.Load(p.Root(), "")
	require.NoError(t, err)
}

func TestInvalidConfigExitsWithConfigCode(t *testing.T) {
	cleanEnv(t)
	p := dspProject(t).WithFile("faustbuild.yaml", "not_a_field: true\n")

	res := run(t, "--root", p.Root())
	assert.Equal(t, ferrors.ExitConfig, res.code)
}

func TestInvalidRootExitsWithUsageCode(t *testing.T) {
	cleanEnv(t)
	missing := filepath.Join(t.TempDir(), "nope")

	res := run(t, "--root", missing)
	assert.Equal(t, ferrors.ExitUsage, res.code)
	_, err := os.Stat(missing)
	assert.True(t, os.IsNotExist(err), "a bad root must not be created")
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	cleanEnv(t)
	res := run(t, "--definitely-not-a-flag")
	assert.Equal(t, ferrors.ExitUsage, res.code)
}
