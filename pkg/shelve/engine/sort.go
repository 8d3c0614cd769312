package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jamesainslie/shelve/pkg/shelve/category"
	"github.com/jamesainslie/shelve/pkg/shelve/filter"
	"github.com/jamesainslie/shelve/pkg/shelve/hasher"
	"github.com/jamesainslie/shelve/pkg/shelve/history"
	"github.com/jamesainslie/shelve/pkg/shelve/mover"
	"github.com/jamesainslie/shelve/pkg/shelve/planner"
	"github.com/jamesainslie/shelve/pkg/shelve/scanner"
	"github.com/jamesainslie/shelve/pkg/shelve/types"
)

// ProgressFunc is called after each file with the number processed so far
// and the total. Its errors and panics are ignored.
type ProgressFunc func(processed, total int) error

// Request describes one sort.
type Request struct {
	ScanRoot string

	// DestRoot receives the category folders. Empty means ScanRoot.
	DestRoot string

	// PreserveStructure keeps each file's directory relative to ScanRoot
	// below its category folder.
	PreserveStructure bool

	DryRun        bool
	IncludeHidden bool
	Exclude       []string

	// MinSize and MaxSize bound candidate sizes in bytes. Zero MaxSize is
	// unbounded.
	MinSize int64
	MaxSize int64

	// Duplicates routes files with identical content into
	// Duplicates/<category>.
	Duplicates bool

	// Extensions restricts candidates to these extensions when non-empty.
	Extensions []string

	Progress ProgressFunc
}

// Summary is the result of a sort.
type Summary struct {
	ScanRoot string `json:"scan_root" yaml:"scan_root"`
	DestRoot string `json:"dest_root" yaml:"dest_root"`

	// Total is the number of candidates found by the scan.
	Total int `json:"total" yaml:"total"`
	Moved int `json:"moved" yaml:"moved"`

	// Duplicates counts candidates routed into the duplicates folder.
	Duplicates      int `json:"duplicates" yaml:"duplicates"`
	DuplicateGroups int `json:"duplicate_groups" yaml:"duplicate_groups"`

	// Hashed counts digests computed from file content.
	Hashed int `json:"hashed" yaml:"hashed"`

	// Skipped counts entries the scan could not stat.
	Skipped int64 `json:"skipped" yaml:"skipped"`

	Items       []history.Item    `json:"items" yaml:"items"`
	CreatedDirs []string          `json:"created_dirs" yaml:"created_dirs"`
	Errors      []types.ItemError `json:"errors" yaml:"errors"`

	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	DryRun  bool          `json:"dry_run" yaml:"dry_run"`

	// EntryID identifies the history entry written for this sort. It is
	// empty for dry runs and for sorts that changed nothing.
	EntryID string `json:"entry_id,omitempty" yaml:"entry_id,omitempty"`

	// Interrupted is set when the context was cancelled mid-sort.
	Interrupted bool `json:"interrupted,omitempty" yaml:"interrupted,omitempty"`

	// LogError describes a failure to persist the history entry.
	LogError string `json:"log_error,omitempty" yaml:"log_error,omitempty"`
}

// IsDuplicate reports whether item was routed into the duplicates folder.
func (s *Summary) IsDuplicate(item history.Item) bool {
	return strings.HasPrefix(item.Dst, filepath.Join(s.DestRoot, category.Duplicates)+string(filepath.Separator))
}

// Sort scans req.ScanRoot and moves every candidate into its category
// folder. Per-file failures are reported in Summary.Errors; an error is
// returned only for unusable roots, bad filter settings, a busy destination
// or a scan that could not start.
func (e *Engine) Sort(ctx context.Context, req Request) (*Summary, error) {
	start := time.Now()

	scanRoot, destRoot, err := resolveRoots(req.ScanRoot, req.DestRoot)
	if err != nil {
		return nil, err
	}

	f, err := filter.New(
		filter.WithMinSize(req.MinSize),
		filter.WithMaxSize(req.MaxSize),
		filter.WithExclude(req.Exclude...),
		filter.WithExtensions(req.Extensions...),
		filter.WithHidden(req.IncludeHidden),
	)
	if err != nil {
		return nil, err
	}

	if !req.DryRun {
		lock, err := history.Acquire(destRoot)
		if err != nil {
			return nil, err
		}
		defer func() { _ = lock.Release() }()
	}

	scan, err := scanner.Scan(ctx, scanner.Options{
		Root:       scanRoot,
		DestRoot:   destRoot,
		Filter:     f,
		Categories: e.table,
		Reserved:   e.Reserved(),
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", scanRoot, err)
	}

	sum := &Summary{
		ScanRoot:    scanRoot,
		DestRoot:    destRoot,
		Total:       len(scan.Candidates),
		Skipped:     scan.Skipped,
		Items:       make([]history.Item, 0, len(scan.Candidates)),
		CreatedDirs: []string{},
		Errors:      []types.ItemError{},
		DryRun:      req.DryRun,
	}

	var dups map[string]string
	if req.Duplicates {
		dups = e.findDuplicates(ctx, sum, scan.Candidates, destRoot, req.IncludeHidden)
	}

	e.logger.Info("sort started",
		"root", scanRoot,
		"dest", destRoot,
		"candidates", sum.Total,
		"dry_run", req.DryRun)

	m := mover.New()
	for i, c := range scan.Candidates {
		if ctx.Err() != nil {
			sum.Interrupted = true
			e.logger.Warn("sort interrupted", "processed", i, "total", sum.Total)
			break
		}

		cat := e.table.For(e.sniffer.Ext(c.Path))
		var dst string
		if _, dup := dups[c.Path]; dup {
			dst = planner.DuplicateDestination(c.Path, scanRoot, destRoot, cat, req.PreserveStructure)
		} else {
			dst = planner.Destination(c.Path, scanRoot, destRoot, cat, req.PreserveStructure)
		}

		res, err := m.Move(c.Path, dst, req.DryRun)
		sum.CreatedDirs = append(sum.CreatedDirs, res.CreatedDirs...)
		sum.Items = append(sum.Items, history.Item{Src: c.Path, Dst: res.Destination, Moved: res.Moved})
		switch {
		case err != nil:
			sum.Errors = append(sum.Errors, types.NewItemError("move", c.Path, err))
			e.logger.Warn("move failed", "src", c.Path, "dst", res.Destination, "error", err)
		case res.Moved:
			sum.Moved++
			e.followMove(c.Path, res.Destination)
		}

		e.report(req.Progress, i+1, sum.Total)
	}

	if !req.DryRun && (sum.Moved > 0 || len(sum.CreatedDirs) > 0) {
		e.record(sum)
	}

	sum.Elapsed = time.Since(start)
	e.logger.Info("sort finished",
		"moved", sum.Moved,
		"duplicates", sum.Duplicates,
		"errors", len(sum.Errors),
		"elapsed", sum.Elapsed)
	return sum, nil
}

// findDuplicates groups candidates by content and returns the paths that
// belong to a duplicate group.
func (e *Engine) findDuplicates(ctx context.Context, sum *Summary, candidates []types.Candidate, destRoot string, hidden bool) map[string]string {
	h := hasher.New(e.cache)

	var refs []types.Candidate
	if e.scope == ScopeDestination {
		refs = e.sortedFiles(ctx, destRoot, hidden)
	}

	res := h.GroupWithReferences(candidates, refs)
	sum.Errors = append(sum.Errors, res.Errors...)
	sum.Hashed = h.Computed()
	sum.DuplicateGroups = len(res.Groups)

	dups := res.Duplicates()
	sum.Duplicates = len(dups)
	e.logger.Debug("duplicate detection complete",
		"groups", sum.DuplicateGroups,
		"files", sum.Duplicates,
		"references", len(refs),
		"hashed", sum.Hashed)
	return dups
}

// sortedFiles lists files already inside the destination's category folders.
func (e *Engine) sortedFiles(ctx context.Context, destRoot string, hidden bool) []types.Candidate {
	f, err := filter.New(filter.WithHidden(hidden))
	if err != nil {
		return nil
	}

	var out []types.Candidate
	for _, name := range e.table.Names() {
		dir := filepath.Join(destRoot, name)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		res, err := scanner.Scan(ctx, scanner.Options{
			Root:       dir,
			DestRoot:   destRoot,
			Filter:     f,
			Categories: e.table,
			Reserved:   e.Reserved(),
		})
		if err != nil {
			e.logger.Debug("skipping sorted folder", "dir", dir, "error", err)
			continue
		}
		out = append(out, res.Candidates...)
	}
	return out
}

// record appends the sort to the destination's history. Failures are kept
// on the summary rather than returned.
func (e *Engine) record(sum *Summary) {
	store := e.store(sum.DestRoot)
	log := store.Load()
	entry := history.NewEntry(sum.ScanRoot, sum.DestRoot, movedItems(sum.Items), sum.CreatedDirs)
	log.Append(entry)

	if err := store.Save(log); err != nil {
		sum.LogError = err.Error()
		e.logger.Error("writing history failed", "path", store.Path(), "error", err)
		return
	}
	sum.EntryID = entry.ID
}

// movedItems keeps the items worth replaying. Items that failed to move are
// never recorded.
func movedItems(items []history.Item) []history.Item {
	out := make([]history.Item, 0, len(items))
	for _, it := range items {
		if it.Moved {
			out = append(out, it)
		}
	}
	return out
}

func (e *Engine) report(fn ProgressFunc, processed, total int) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("progress callback panicked", "panic", r)
		}
	}()
	if err := fn(processed, total); err != nil {
		e.logger.Debug("progress callback failed", "error", err)
	}
}

func resolveRoots(scanRoot, destRoot string) (string, string, error) {
	if strings.TrimSpace(scanRoot) == "" {
		return "", "", fmt.Errorf("%w: scan root is empty", ErrInvalidRoot)
	}
	scan, err := scanner.Canonical(scanRoot)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	info, err := os.Stat(scan)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return "", "", fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, scan)
	}

	if strings.TrimSpace(destRoot) == "" {
		return scan, scan, nil
	}
	dest, err := scanner.Canonical(destRoot)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if info, err := os.Stat(dest); err == nil && !info.IsDir() {
		return "", "", fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, dest)
	}
	return scan, dest, nil
}
