// Package watch rebuilds DSP sources when they or the architecture file change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/faustbuild/internal/config"
	"git.home.luguber.info/inful/faustbuild/internal/faust"
	"git.home.luguber.info/inful/faustbuild/internal/logfields"
)

// Builder runs one build. *faust.Driver satisfies it.
type Builder interface {
	Run(ctx context.Context) (*faust.RunReport, error)
}

// Options tunes a Watcher.
type Options struct {
	// Debounce is the quiet period after the last change before rebuilding.
	Debounce time.Duration
	// RebuildEvery forces a rebuild on a fixed interval when positive.
	RebuildEvery time.Duration
	// SkipInitialBuild disables the build performed when Run starts.
	SkipInitialBuild bool
}

// Watcher drives a Builder from filesystem events.
type Watcher struct {
	builder Builder
	layout  config.Layout
	opts    Options

	rebuildReq chan struct{}
	mu         sync.Mutex
	timer      *time.Timer
	runs       sync.WaitGroup
}

// New creates a watcher over layout's source directory and architecture file.
func New(builder Builder, layout config.Layout, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = config.DefaultWatchDebounce
	}
	return &Watcher{
		builder:    builder,
		layout:     layout,
		opts:       opts,
		rebuildReq: make(chan struct{}, 1),
	}
}

// Run watches until ctx is done. Build failures are logged and watching
// continues. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := w.setupFileWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fsw.Close() }()

	if w.opts.RebuildEvery > 0 {
		sched, err := NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.ScheduleEvery("periodic-rebuild", w.opts.RebuildEvery, w.request); err != nil {
			_ = sched.Stop()
			return err
		}
		sched.Start()
		defer func() { _ = sched.Stop() }()
	}

	w.runs.Add(1)
	go w.rebuildWorker(ctx)
	defer w.runs.Wait()

	if !w.opts.SkipInitialBuild {
		w.request()
	}

	slog.Info("Watching for changes",
		logfields.Path(w.layout.SourceDir),
		slog.String("arch_file", w.layout.ArchFile))

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleFileEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) setupFileWatcher() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	dirs := []string{w.layout.SourceDir, filepath.Dir(w.layout.ArchFile)}
	added := 0
	for i, dir := range dirs {
		if i > 0 && dir == dirs[0] {
			continue
		}
		if fi, statErr := os.Stat(dir); statErr != nil || !fi.IsDir() {
			slog.Warn("Watch directory unavailable", logfields.Path(dir))
			continue
		}
		if addErr := fsw.Add(dir); addErr != nil {
			slog.Warn("Watch add failed", logfields.Path(dir), logfields.Error(addErr))
			continue
		}
		added++
	}
	if added == 0 {
		_ = fsw.Close()
		return nil, errors.New("nothing to watch: source directory and architecture file directory are missing")
	}
	return fsw, nil
}

func (w *Watcher) handleFileEvent(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || !w.relevant(ev.Name) {
		return
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

// relevant reports whether path is a source file or the architecture file.
func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if shouldIgnore(base) {
		return false
	}
	if filepath.Clean(path) == filepath.Clean(w.layout.ArchFile) {
		return true
	}
	if filepath.Dir(filepath.Clean(path)) != filepath.Clean(w.layout.SourceDir) {
		return false
	}
	ok, _ := filepath.Match(w.layout.Pattern, base)
	return ok
}

// shouldIgnore filters editor swap and temp files.
func shouldIgnore(base string) bool {
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")
}

// trigger requests a rebuild after the debounce period.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, w.request)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// request queues a rebuild without debouncing. Requests coalesce.
func (w *Watcher) request() {
	select {
	case w.rebuildReq <- struct{}{}:
	default:
	}
}

// rebuildWorker runs builds one at a time. Requests arriving during a build
// coalesce in the buffered channel into exactly one follow-up build.
func (w *Watcher) rebuildWorker(ctx context.Context) {
	defer w.runs.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.rebuildReq:
			if ctx.Err() != nil {
				return
			}
			w.rebuild(ctx)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) {
	report, err := w.builder.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("Rebuild failed; still watching", logfields.Error(err))
		return
	}
	if report != nil {
		slog.Info("Rebuild finished", logfields.RunID(report.RunID), logfields.Count(report.Succeeded()))
	}
}
