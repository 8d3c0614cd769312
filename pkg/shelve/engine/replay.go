package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/jamesainslie/shelve/pkg/shelve/history"
	"github.com/jamesainslie/shelve/pkg/shelve/mover"
	"github.com/jamesainslie/shelve/pkg/shelve/scanner"
	"github.com/jamesainslie/shelve/pkg/shelve/types"
)

// ReplayResult is the outcome of an undo or redo.
type ReplayResult struct {
	EntryID  string `json:"entry_id" yaml:"entry_id"`
	DestRoot string `json:"dest_root" yaml:"dest_root"`

	// Replayed counts files moved back (undo) or forward again (redo).
	Replayed int `json:"replayed" yaml:"replayed"`

	// Skipped counts records that could not be replayed; each has an entry
	// in Errors.
	Skipped int               `json:"skipped" yaml:"skipped"`
	Errors  []types.ItemError `json:"errors" yaml:"errors"`

	DirsRemoved []string `json:"dirs_removed" yaml:"dirs_removed"`
	DirsCreated []string `json:"dirs_created" yaml:"dirs_created"`

	// Pointer is the history pointer after the replay.
	Pointer int `json:"pointer" yaml:"pointer"`

	// Interrupted is set when the context was cancelled mid-replay. The
	// pointer is left in place so running the same command again retries
	// the records that were not replayed.
	Interrupted bool `json:"interrupted,omitempty" yaml:"interrupted,omitempty"`

	LogError string `json:"log_error,omitempty" yaml:"log_error,omitempty"`
}

// Undo reverses the most recently applied sort in destRoot: moved files go
// back to their sources in reverse order, then directories the sort created
// are removed if they are empty. Records that cannot be reversed are
// reported and skipped.
func (e *Engine) Undo(ctx context.Context, destRoot string) (*ReplayResult, error) {
	return e.replay(ctx, destRoot, undo)
}

// Redo replays the most recently undone sort in destRoot in its original
// order, recreating the directories it had created.
func (e *Engine) Redo(ctx context.Context, destRoot string) (*ReplayResult, error) {
	return e.replay(ctx, destRoot, redo)
}

type direction int

const (
	undo direction = iota
	redo
)

func (d direction) String() string {
	if d == undo {
		return "undo"
	}
	return "redo"
}

func (e *Engine) replay(ctx context.Context, destRoot string, dir direction) (*ReplayResult, error) {
	dest, err := canonicalDest(destRoot)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dest); errors.Is(err, fs.ErrNotExist) {
		if dir == undo {
			return nil, ErrNothingToUndo
		}
		return nil, ErrNothingToRedo
	}

	lock, err := history.Acquire(dest)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	store := e.store(dest)
	log := store.Load()

	var entry history.Entry
	var ok bool
	if dir == undo {
		entry, ok = log.UndoTarget()
		if !ok {
			return nil, ErrNothingToUndo
		}
	} else {
		entry, ok = log.RedoTarget()
		if !ok {
			return nil, ErrNothingToRedo
		}
	}

	res := &ReplayResult{
		EntryID:     entry.ID,
		DestRoot:    dest,
		Errors:      []types.ItemError{},
		DirsRemoved: []string{},
		DirsCreated: []string{},
	}
	e.logger.Info(dir.String()+" started", "dest", dest, "entry", entry.ID, "items", len(entry.Items))

	m := mover.New()
	if dir == undo {
		e.undoItems(ctx, m, entry, res)
	} else {
		created, err := m.CreateDirs(entry.CreatedDirs)
		res.DirsCreated = append(res.DirsCreated, created...)
		if err != nil {
			res.Errors = append(res.Errors, types.NewItemError("mkdir", dest, err))
		}
		e.redoItems(ctx, m, entry, res)
	}

	if ctx.Err() != nil {
		res.Interrupted = true
		res.Pointer = log.Pointer
		e.logger.Warn(dir.String()+" interrupted",
			"replayed", res.Replayed,
			"skipped", res.Skipped,
			"pointer", res.Pointer)
		return res, nil
	}

	if dir == undo {
		res.DirsRemoved = append(res.DirsRemoved, mover.RemoveEmptyDirs(entry.CreatedDirs)...)
		log.CommitUndo()
	} else {
		log.CommitRedo()
	}

	res.Pointer = log.Pointer
	if err := store.Save(log); err != nil {
		res.LogError = err.Error()
		e.logger.Error("writing history failed", "path", store.Path(), "error", err)
	}

	e.logger.Info(dir.String()+" finished",
		"replayed", res.Replayed,
		"skipped", res.Skipped,
		"pointer", res.Pointer)
	return res, nil
}

func (e *Engine) undoItems(ctx context.Context, m *mover.Mover, entry history.Entry, res *ReplayResult) {
	items := slices.Clone(entry.Items)
	slices.Reverse(items)
	for _, it := range items {
		if !it.Moved {
			continue
		}
		if ctx.Err() != nil {
			res.Skipped++
			res.Errors = append(res.Errors, types.NewItemError("restore", it.Dst, ctx.Err()))
			continue
		}
		created, err := m.Restore(it.Dst, it.Src)
		res.DirsCreated = append(res.DirsCreated, created...)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, types.NewItemError("restore", it.Dst, err))
			e.logReplayFailure("undo", it, err)
			continue
		}
		res.Replayed++
		e.followMove(it.Dst, it.Src)
	}
}

func (e *Engine) redoItems(ctx context.Context, m *mover.Mover, entry history.Entry, res *ReplayResult) {
	for _, it := range entry.Items {
		if !it.Moved {
			continue
		}
		if ctx.Err() != nil {
			res.Skipped++
			res.Errors = append(res.Errors, types.NewItemError("redo", it.Src, ctx.Err()))
			continue
		}
		created, err := m.Restore(it.Src, it.Dst)
		res.DirsCreated = append(res.DirsCreated, created...)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, types.NewItemError("redo", it.Src, err))
			e.logReplayFailure("redo", it, err)
			continue
		}
		res.Replayed++
		e.followMove(it.Src, it.Dst)
	}
}

func (e *Engine) logReplayFailure(op string, it history.Item, err error) {
	level := e.logger.Warn
	if errors.Is(err, mover.ErrMissing) {
		level = e.logger.Info
	}
	level(op+" skipped record", "src", it.Src, "dst", it.Dst, "error", err)
}

// History returns the log stored in destRoot. A missing or unreadable log
// is returned as an empty one.
func (e *Engine) History(destRoot string) (*history.Log, error) {
	dest, err := canonicalDest(destRoot)
	if err != nil {
		return nil, err
	}
	return e.store(dest).Load(), nil
}

func canonicalDest(destRoot string) (string, error) {
	if strings.TrimSpace(destRoot) == "" {
		return "", fmt.Errorf("%w: destination root is empty", ErrInvalidRoot)
	}
	dest, err := scanner.Canonical(destRoot)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	return dest, nil
}
