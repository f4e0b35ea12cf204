package testing

import (
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/faustbuild/internal/config"
)

// ProjectBuilder lays out a project root with the default directories.
type ProjectBuilder struct {
	t    *testing.T
	root string
}

// NewProject creates an empty root under t.TempDir(). Nothing else exists
// until the With* methods add it.
func NewProject(t *testing.T) *ProjectBuilder {
	t.Helper()
	return &ProjectBuilder{t: t, root: t.TempDir()}
}

// Root returns the project root.
func (p *ProjectBuilder) Root() string { return p.root }

// Layout returns the default layout for the project.
func (p *ProjectBuilder) Layout() config.Layout { return config.DefaultLayout(p.root) }

// WithSourceDir creates the (possibly empty) source directory.
func (p *ProjectBuilder) WithSourceDir() *ProjectBuilder {
	p.t.Helper()
	p.mkdir(p.Layout().SourceDir)
	return p
}

// WithSource writes <source dir>/<fileName>.
func (p *ProjectBuilder) WithSource(fileName, content string) *ProjectBuilder {
	p.t.Helper()
	p.write(filepath.Join(p.Layout().SourceDir, fileName), content)
	return p
}

// WithArchFile writes the architecture file.
func (p *ProjectBuilder) WithArchFile() *ProjectBuilder {
	p.t.Helper()
	p.write(p.Layout().ArchFile, "/* architecture */\n")
	return p
}

// WithFile writes an arbitrary file relative to the root.
func (p *ProjectBuilder) WithFile(rel, content string) *ProjectBuilder {
	p.t.Helper()
	p.write(filepath.Join(p.root, filepath.FromSlash(rel)), content)
	return p
}

func (p *ProjectBuilder) mkdir(dir string) {
	p.t.Helper()
	if err := os.MkdirAll(dir, testDirPermissions); err != nil {
		p.t.Fatalf("mkdir %s: %v", dir, err)
	}
}

func (p *ProjectBuilder) write(path, content string) {
	p.t.Helper()
	p.mkdir(filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), testFilePermissions); err != nil {
		p.t.Fatalf("write %s: %v", path, err)
	}
}
