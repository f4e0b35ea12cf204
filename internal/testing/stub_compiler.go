package testing

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const (
	envStubLog  = "FAUST_STUB_LOG"
	envStubFail = "FAUST_STUB_FAIL"
)

// stubScript mimics the parts of faust the driver relies on: it fails when the
// architecture file is missing, fails for the input named by FAUST_STUB_FAIL,
// and otherwise writes the output header. Each call appends its
// tab-separated argv to FAUST_STUB_LOG.
const stubScript = `#!/bin/sh
printf '%s\t' "$@" >> "$FAUST_STUB_LOG"
printf '\n' >> "$FAUST_STUB_LOG"
arch="$3"
input="$4"
out="$6"
if [ ! -f "$arch" ]; then
	echo "ERROR : unable to open architecture file $arch" >&2
	exit 1
fi
if [ -n "$FAUST_STUB_FAIL" ] && [ "$(basename "$input")" = "$FAUST_STUB_FAIL" ]; then
	echo "$input : syntax error" >&2
	exit 1
fi
echo "/* generated from $(basename "$input") */" > "$out"
`

// StubCompiler is a fake faust binary installed first on PATH.
type StubCompiler struct {
	t   *testing.T
	bin string
	log string
}

// InstallStubCompiler writes a stub named "faust" into a temp dir and puts it
// first on PATH for the rest of the test. Skips on Windows.
func InstallStubCompiler(t *testing.T) *StubCompiler {
	t.Helper()
	dir := t.TempDir()
	s := WriteStubCompiler(t, filepath.Join(dir, "faust"))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return s
}

// WriteStubCompiler writes the stub to bin without touching PATH, for tests
// that name the compiler by path. Skips on Windows.
func WriteStubCompiler(t *testing.T, bin string) *StubCompiler {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub compiler is a POSIX shell script")
	}

	dir := filepath.Dir(bin)
	if err := os.MkdirAll(dir, testDirPermissions); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	// #nosec G306 -- the stub must be executable
	if err := os.WriteFile(bin, []byte(stubScript), 0o755); err != nil {
		t.Fatalf("write stub compiler: %v", err)
	}

	log := filepath.Join(t.TempDir(), "calls.log")
	t.Setenv(envStubLog, log)
	t.Setenv(envStubFail, "")

	return &StubCompiler{t: t, bin: bin, log: log}
}

// Path is the absolute path of the stub binary.
func (s *StubCompiler) Path() string { return s.bin }

// FailOn makes the stub exit 1 for the input with this base name.
func (s *StubCompiler) FailOn(inputBase string) {
	s.t.Setenv(envStubFail, inputBase)
}

// Calls returns the argv (without argv[0]) of every invocation so far.
func (s *StubCompiler) Calls() [][]string {
	s.t.Helper()
	data, err := os.ReadFile(s.log)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		s.t.Fatalf("read stub log: %v", err)
	}

	var calls [][]string
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		calls = append(calls, strings.Split(strings.TrimSuffix(line, "\t"), "\t"))
	}
	return calls
}
