package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docversions/internal/logfields"
)

// skippedDirs are never descended into; generators and package managers
// write there during a build.
var skippedDirs = []string{".git", "node_modules", ".docusaurus", ".cache"}

// BuildFunc runs one build. Errors are logged and watching continues.
type BuildFunc func(ctx context.Context) error

// Watcher triggers builds for file changes below its paths.
type Watcher struct {
	paths    []string
	ignore   []string
	debounce time.Duration
}

// New creates a watcher for paths. Events for anything inside ignore (for
// example the output directory or files patched by the build) are dropped.
// All paths must be absolute.
func New(paths, ignore []string, debounce time.Duration) *Watcher {
	clean := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, p := range in {
			if p != "" {
				out = append(out, filepath.Clean(p))
			}
		}
		return out
	}
	return &Watcher{paths: clean(paths), ignore: clean(ignore), debounce: debounce}
}

// Run watches until ctx is done. An in-flight build is awaited before Run returns.
func (w *Watcher) Run(ctx context.Context, build BuildFunc) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	watched := 0
	for _, p := range w.paths {
		watched += w.add(fw, p)
	}
	if watched == 0 {
		return fmt.Errorf("none of the watch paths exist: %s", strings.Join(w.paths, ", "))
	}
	slog.Info("Watching for changes", logfields.Files(watched), slog.Duration("debounce", w.debounce))

	var (
		timer   <-chan time.Time
		running bool
		pending bool
		done    = make(chan error, 1)
	)
	for {
		select {
		case <-ctx.Done():
			if running {
				<-done
			}
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.Relevant(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.addTree(fw, ev.Name)
				}
			}
			slog.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			if running {
				pending = true
				continue
			}
			timer = time.After(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", logfields.Error(err))

		case <-timer:
			timer = nil
			running = true
			go func() { done <- build(ctx) }()

		case err := <-done:
			running = false
			if err != nil {
				slog.Error("Rebuild failed", logfields.Error(err))
			}
			if pending && ctx.Err() == nil {
				pending = false
				timer = time.After(w.debounce)
			}
		}
	}
}

// Relevant reports whether a change to path should trigger a build.
func (w *Watcher) Relevant(path string) bool {
	path = filepath.Clean(path)
	if w.ignored(path) {
		return false
	}
	for _, p := range w.paths {
		if !within(p, path) {
			continue
		}
		rel, _ := filepath.Rel(p, path)
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if slices.Contains(skippedDirs, part) {
				return false
			}
		}
		return true
	}
	return false
}

// add registers p: directories recursively, files through their parent
// directory. It returns the number of directories added.
func (w *Watcher) add(fw *fsnotify.Watcher, p string) int {
	info, err := os.Stat(p)
	if err != nil {
		slog.Debug("Skipping missing watch path", logfields.Path(p))
		return 0
	}
	if !info.IsDir() {
		if err := fw.Add(filepath.Dir(p)); err != nil {
			slog.Warn("Failed to watch path", logfields.Path(p), logfields.Error(err))
			return 0
		}
		return 1
	}
	return w.addTree(fw, p)
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) int {
	added := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && (slices.Contains(skippedDirs, d.Name()) || w.ignored(path)) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			slog.Warn("Failed to watch directory", logfields.Path(path), logfields.Error(err))
			return nil
		}
		added++
		return nil
	})
	return added
}

func (w *Watcher) ignored(path string) bool {
	for _, ig := range w.ignore {
		if within(ig, path) {
			return true
		}
	}
	return false
}

// within reports whether path is base or below it.
func within(base, path string) bool {
	if base == path {
		return true
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
