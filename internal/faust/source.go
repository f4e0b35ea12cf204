package faust

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Source is a DSP input file. Name is the file name without its extension
// and determines the generated header name.
type Source struct {
	Name string
	Path string
}

// Discover returns the regular files directly inside dir whose name matches
// pattern, sorted by file name. Matching is case-sensitive and does not
// descend into subdirectories. A missing dir yields no sources.
func Discover(dir, pattern string) ([]Source, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid source pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	// os.ReadDir returns entries sorted by file name.
	var sources []Source
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ok, _ := filepath.Match(pattern, name); !ok {
			continue
		}
		sources = append(sources, Source{
			Name: stem(name),
			Path: filepath.Join(dir, name),
		})
	}
	return sources, nil
}

// stem strips the final extension. A name that is only an extension
// (".dsp") is its own stem.
func stem(name string) string {
	s := strings.TrimSuffix(name, filepath.Ext(name))
	if s == "" {
		return name
	}
	return s
}
