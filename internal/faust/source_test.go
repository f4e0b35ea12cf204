package faust

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("process = _;\n"), 0o600))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "sine.dsp"))
	touch(t, filepath.Join(dir, "noise.dsp"))
	touch(t, filepath.Join(dir, "reverb.lib"))
	touch(t, filepath.Join(dir, "LOUD.DSP"))
	touch(t, filepath.Join(dir, "nested", "deep.dsp"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.dsp"), 0o750))

	sources, err := Discover(dir, "*.dsp")
	require.NoError(t, err)
	assert.Equal(t, []Source{
		{Name: "noise", Path: filepath.Join(dir, "noise.dsp")},
		{Name: "sine", Path: filepath.Join(dir, "sine.dsp")},
	}, sources)
}

func TestDiscover_MissingDirectory(t *testing.T) {
	sources, err := Discover(filepath.Join(t.TempDir(), "absent"), "*.dsp")
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestDiscover_InvalidPattern(t *testing.T) {
	_, err := Discover(t.TempDir(), "[")
	require.Error(t, err)
}

func TestStem(t *testing.T) {
	cases := map[string]string{
		"sine.dsp":     "sine",
		"a.b.dsp":      "a.b",
		".dsp":         ".dsp",
		"no-extension": "no-extension",
	}
	for in, want := range cases {
		assert.Equal(t, want, stem(in), in)
	}
}
