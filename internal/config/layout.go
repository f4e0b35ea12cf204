package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Layout is the resolved set of paths for one run. It is built once at
// startup and passed by value; nothing mutates it afterwards.
type Layout struct {
	Root      string
	SourceDir string
	OutputDir string
	ArchFile  string
	Pattern   string
	HeaderExt string
}

// Layout resolves the configured directories against root.
func (c *Config) Layout(root string) Layout {
	return Layout{
		Root:      root,
		SourceDir: resolve(root, c.SourceDir),
		OutputDir: resolve(root, c.OutputDir),
		ArchFile:  resolve(root, c.ArchFile),
		Pattern:   SourcePattern,
		HeaderExt: HeaderExt,
	}
}

// DefaultLayout is the fixed layout under root.
func DefaultLayout(root string) Layout {
	return Default().Layout(root)
}

// ResolvePath resolves p against root unless it is absolute or empty.
func ResolvePath(root, p string) string {
	if p == "" {
		return ""
	}
	return resolve(root, p)
}

// ResolveCompiler resolves a compiler given as a relative path (one that
// contains a separator) against root. Bare names are left for PATH lookup.
func ResolveCompiler(root, compiler string) string {
	if compiler == "" || filepath.IsAbs(compiler) || !strings.ContainsAny(compiler, `/`+string(filepath.Separator)) {
		return compiler
	}
	return resolve(root, compiler)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

// ResolveRoot picks the project root: explicit flag, then FAUSTBUILD_ROOT,
// then the working directory. The result is absolute and must be a directory.
func ResolveRoot(flag string) (string, error) {
	root := flag
	if root == "" {
		root = os.Getenv(EnvRoot)
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		root = wd
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root %s: %w", root, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("root directory: %w", err)
	}
	if !st.IsDir() {
		return "", fmt.Errorf("root is not a directory: %s", abs)
	}
	return abs, nil
}
