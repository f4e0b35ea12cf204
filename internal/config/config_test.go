package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvCompiler, "")
	root := t.TempDir()

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultCompiler, cfg.Compiler)
	assert.Equal(t, DefaultSourceDir, cfg.SourceDir)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultArchFile, cfg.ArchFile)
	assert.Equal(t, DefaultWatchDebounce, cfg.Watch.Debounce)
	assert.Empty(t, cfg.History.Path)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(t.TempDir(), "missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestLoad_YAMLOverrides(t *testing.T) {
	t.Setenv(EnvCompiler, "")
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultConfigFile), `
compiler: /opt/faust/bin/faust
source_dir: dsp
history:
  path: .faustbuild/history.db
watch:
  debounce: 1s
  rebuild_every: 10m
`)

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "/opt/faust/bin/faust", cfg.Compiler)
	assert.Equal(t, "dsp", cfg.SourceDir)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, ".faustbuild/history.db", cfg.History.Path)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 10*time.Minute, cfg.Watch.RebuildEvery)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultConfigFile), "compilr: faust\n")

	_, err := Load(root, "")
	require.Error(t, err)
}

func TestLoad_EmptyFileIsValid(t *testing.T) {
	t.Setenv(EnvCompiler, "")
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultConfigFile), "")

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultCompiler, cfg.Compiler)
}

func TestLoad_EnvFileAndExpansion(t *testing.T) {
	root := t.TempDir()
	t.Setenv("FAUSTBUILD_TEST_NATS", "")
	require.NoError(t, os.Unsetenv("FAUSTBUILD_TEST_NATS"))
	t.Cleanup(func() { _ = os.Unsetenv("FAUSTBUILD_TEST_NATS") })

	writeFile(t, filepath.Join(root, ".env"), "FAUSTBUILD_TEST_NATS=nats://127.0.0.1:4222\n")
	writeFile(t, filepath.Join(root, DefaultConfigFile), "notify:\n  nats_url: ${FAUSTBUILD_TEST_NATS}\n")

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Notify.NATSURL)
	assert.Equal(t, DefaultNotifySubject, cfg.Notify.Subject)
}

func TestLoad_EnvCompilerWinsOverYAML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultConfigFile), "compiler: faust-from-yaml\n")
	t.Setenv(EnvCompiler, "faust-from-env")

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "faust-from-env", cfg.Compiler)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Watch.RebuildEvery = 10 * time.Millisecond
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Watch.Debounce = -time.Second
	require.Error(t, cfg.Validate())

	require.NoError(t, Default().Validate())
}

func TestInit(t *testing.T) {
	t.Setenv(EnvCompiler, "")
	root := t.TempDir()
	path := filepath.Join(root, DefaultConfigFile)

	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false), "second init without force must fail")
	require.NoError(t, Init(path, true))

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, ".faustbuild/history.db", cfg.History.Path)
	assert.Equal(t, DefaultArchFile, cfg.ArchFile)
}

func TestLoad_RelativeCompilerResolvedAgainstRoot(t *testing.T) {
	t.Setenv(EnvCompiler, "")
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultConfigFile), "compiler: tools/faust\n")

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "tools", "faust"), cfg.Compiler)
}

func TestLoad_BareCompilerNameLeftForPATH(t *testing.T) {
	t.Setenv(EnvCompiler, "")
	root := t.TempDir()
	writeFile(t, filepath.Join(root, DefaultConfigFile), "compiler: faust2\n")

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "faust2", cfg.Compiler)
}
