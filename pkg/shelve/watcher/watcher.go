// Package watcher re-runs a sort whenever files appear in a watched root.
//
// Directories are watched recursively. Category folders, the duplicates
// folder and hidden directories are never watched, so files the sort itself
// moves do not trigger another run. Events are debounced: a sort starts once
// the tree has been quiet for the debounce period.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/shelve/pkg/shelve/category"
	"github.com/jamesainslie/shelve/pkg/shelve/filter"
	"github.com/jamesainslie/shelve/pkg/shelve/history"
	"github.com/jamesainslie/shelve/pkg/shelve/logging"
	"github.com/jamesainslie/shelve/pkg/shelve/scanner"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// Options configures a Watcher.
type Options struct {
	Root string

	// DestRoot is where sorted files live. Empty means Root.
	DestRoot string

	// Categories names the folders that are not watched. Nil uses the
	// default table.
	Categories *category.Table

	// Filter decides which paths are hidden or excluded. Nil hides dotfiles.
	Filter *filter.Filter

	// Reserved lists base names whose changes are ignored at any depth. Nil
	// uses the history and lock file names.
	Reserved []string

	Debounce time.Duration
}

// SortFunc runs one sort of the watched root.
type SortFunc func(ctx context.Context) error

// Watcher watches a root for new files.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	pruned   map[string]struct{}
	filter   *filter.Filter
	reserved []string
	debounce time.Duration
	logger   *logging.Logger

	mu     sync.Mutex
	paths  map[string]bool
	closed bool
}

// New creates a Watcher. Call Watch to register directories, then Run.
func New(opts Options) (*Watcher, error) {
	root, err := scanner.Canonical(opts.Root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "watch", Path: root, Err: scanner.ErrNotDirectory}
	}

	dest := root
	if opts.DestRoot != "" {
		if dest, err = scanner.Canonical(opts.DestRoot); err != nil {
			return nil, err
		}
	}
	if opts.Categories == nil {
		opts.Categories = category.DefaultTable()
	}
	if opts.Filter == nil {
		if opts.Filter, err = filter.New(); err != nil {
			return nil, err
		}
	}
	if opts.Reserved == nil {
		opts.Reserved = []string{history.DefaultFile, history.DefaultFile + ".tmp", history.LockFile}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	return &Watcher{
		fsw:      fsw,
		root:     root,
		pruned:   scanner.PrunedDirs(root, dest, opts.Categories),
		filter:   opts.Filter,
		reserved: opts.Reserved,
		debounce: opts.Debounce,
		logger:   logging.Get("watcher"),
		paths:    make(map[string]bool),
	}, nil
}

// Root returns the canonical watched root.
func (w *Watcher) Root() string {
	return w.root
}

// Watch registers the root and every eligible subdirectory.
func (w *Watcher) Watch() error {
	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.logger.Info("watching", "root", w.root, "dirs", len(w.Watched()))
	return nil
}

// Watched returns the watched directories, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.paths))
	for p := range w.paths {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// addTree watches dir and its subdirectories. Symlinks are not followed.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignoredDir(path) {
			return filepath.SkipDir
		}
		return w.addWatch(path)
	})
}

func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

func (w *Watcher) removeTree(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p := range w.paths {
		if p == path || isSubPath(p, path) {
			_ = w.fsw.Remove(p)
			delete(w.paths, p)
		}
	}
}

// ignoredDir reports whether a directory is outside the watched set.
func (w *Watcher) ignoredDir(path string) bool {
	for p := range w.pruned {
		if path == p || isSubPath(path, p) {
			return true
		}
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	return w.filter.Hidden(rel) || w.filter.Excluded(path)
}

// relevant reports whether an event should schedule a sort. New directories
// are watched as a side effect.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		w.removeTree(ev.Name)
		return false
	}
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
		return false
	}

	info, err := os.Lstat(ev.Name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		if w.ignoredDir(ev.Name) {
			return false
		}
		if err := w.addTree(ev.Name); err != nil {
			w.logger.Debug("watching new directory failed", "path", ev.Name, "error", err)
		}
		return true
	}
	if !info.Mode().IsRegular() {
		return false
	}

	if dir := filepath.Dir(ev.Name); dir != w.root && w.ignoredDir(dir) {
		return false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || w.filter.Hidden(rel) || w.filter.Excluded(ev.Name) {
		return false
	}
	if slices.Contains(w.reserved, filepath.Base(ev.Name)) {
		return false
	}
	return true
}

// Run processes events until ctx is cancelled, calling sort after each
// quiet period that followed a relevant event. Sort failures are logged and
// the watch continues; Run returns an error only when the root disappears.
func (w *Watcher) Run(ctx context.Context, sort SortFunc) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	pending := 0

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			pending++
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-timer.C:
			w.logger.Debug("quiet period elapsed", "events", pending)
			pending = 0
			if err := sort(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if _, statErr := os.Stat(w.root); errors.Is(statErr, fs.ErrNotExist) {
					return fmt.Errorf("watched root removed: %w", statErr)
				}
				w.logger.Warn("sort failed", "root", w.root, "error", err)
			}
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	return w.fsw.Close()
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
