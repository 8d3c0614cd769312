// Package scanner walks a scan root and collects sort candidates. The walk is
// parallel (fastwalk); results are sorted by path before they are returned.
package scanner

import (
	"cmp"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/shelve/pkg/shelve/category"
	"github.com/jamesainslie/shelve/pkg/shelve/filter"
	"github.com/jamesainslie/shelve/pkg/shelve/history"
	"github.com/jamesainslie/shelve/pkg/shelve/logging"
	"github.com/jamesainslie/shelve/pkg/shelve/types"
)

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("scan root is not a directory")

// Options configures a scan.
type Options struct {
	// Root is the directory to walk.
	Root string

	// DestRoot is where sorted files live. Category folders under it are
	// pruned from the walk. Empty means Root.
	DestRoot string

	// Filter selects candidates. Nil accepts every visible file.
	Filter *filter.Filter

	// Categories names the folders pruned under DestRoot. Nil uses the
	// default table.
	Categories *category.Table

	// Reserved lists base names that are never candidates, at any depth. A
	// directory sorted in place earlier keeps its own history and lock file.
	// Nil uses the history and lock file names.
	Reserved []string
}

// Result is the outcome of a scan.
type Result struct {
	Root       string
	DestRoot   string
	Candidates []types.Candidate

	// Skipped counts entries that vanished or could not be stat'ed. They are
	// never reported as errors.
	Skipped int64

	Elapsed time.Duration
}

// Scanner performs one scan.
type Scanner struct {
	opts   Options
	logger *logging.Logger

	root    string
	dest    string
	pruned  map[string]struct{}
	skipped atomic.Int64

	mu      sync.Mutex
	results []types.Candidate
}

// New creates a Scanner, filling defaults for unset options.
func New(opts Options) (*Scanner, error) {
	if opts.Filter == nil {
		f, err := filter.New()
		if err != nil {
			return nil, err
		}
		opts.Filter = f
	}
	if opts.Categories == nil {
		opts.Categories = category.DefaultTable()
	}
	if opts.Reserved == nil {
		opts.Reserved = []string{history.DefaultFile, history.DefaultFile + ".tmp", history.LockFile}
	}
	return &Scanner{opts: opts, logger: logging.Get("scanner")}, nil
}

// Scan is shorthand for New(opts) followed by Scan.
func Scan(ctx context.Context, opts Options) (*Result, error) {
	s, err := New(opts)
	if err != nil {
		return nil, err
	}
	return s.Scan(ctx)
}

// Scan walks the root. It returns ctx.Err() if the context is cancelled.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()

	root, err := resolveDir(s.opts.Root)
	if err != nil {
		return nil, err
	}
	dest := root
	if s.opts.DestRoot != "" {
		if dest, err = Canonical(s.opts.DestRoot); err != nil {
			return nil, err
		}
	}
	s.root, s.dest = root, dest
	s.pruned = s.prunedDirs()

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, root, s.visit(ctx))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if walkErr != nil && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return nil, walkErr
	}

	slices.SortFunc(s.results, func(a, b types.Candidate) int {
		return cmp.Compare(a.Path, b.Path)
	})

	res := &Result{
		Root:       root,
		DestRoot:   dest,
		Candidates: s.results,
		Skipped:    s.skipped.Load(),
		Elapsed:    time.Since(start),
	}
	s.logger.Debug("scan complete",
		"root", root,
		"candidates", len(res.Candidates),
		"skipped", res.Skipped,
		"elapsed", res.Elapsed)
	return res, nil
}

func (s *Scanner) prunedDirs() map[string]struct{} {
	return PrunedDirs(s.root, s.dest, s.opts.Categories)
}

// PrunedDirs lists the directories under dest that hold already-sorted
// files: every category folder plus the duplicates folder. When dest is a
// separate directory nested inside root, dest itself is included. Both paths
// must be canonical.
func PrunedDirs(root, dest string, table *category.Table) map[string]struct{} {
	out := make(map[string]struct{})
	for _, name := range table.Names() {
		out[filepath.Join(dest, name)] = struct{}{}
	}
	out[filepath.Join(dest, category.Duplicates)] = struct{}{}
	if dest != root && within(dest, root) {
		out[dest] = struct{}{}
	}
	return out
}

func (s *Scanner) visit(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return fastwalk.ErrSkipFiles
		default:
		}

		if err != nil {
			// Unreadable directories and vanished entries are skipped.
			s.skipped.Add(1)
			if d != nil && d.IsDir() && path != s.root {
				return fastwalk.SkipDir
			}
			return nil
		}
		if path == s.root {
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			s.skipped.Add(1)
			return nil
		}

		if d.IsDir() {
			if s.opts.Filter.Hidden(rel) {
				return fastwalk.SkipDir
			}
			if _, ok := s.pruned[path]; ok {
				return fastwalk.SkipDir
			}
			return nil
		}

		if s.opts.Filter.Hidden(rel) {
			return nil
		}
		if slices.Contains(s.opts.Reserved, d.Name()) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.skipped.Add(1)
			return nil
		}
		if !s.opts.Filter.Match(path, info.Size()) {
			return nil
		}

		s.mu.Lock()
		s.results = append(s.results, types.Candidate{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		s.mu.Unlock()
		return nil
	}
}

// Canonical returns the absolute, symlink-resolved form of path. For a path
// that does not exist yet the deepest existing ancestor is resolved and the
// remaining segments are appended.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	var rest []string
	cur := abs
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

func resolveDir(path string) (string, error) {
	root, err := Canonical(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", &fs.PathError{Op: "scan", Path: root, Err: ErrNotDirectory}
	}
	return root, nil
}

// within reports whether path lies strictly inside dir.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
