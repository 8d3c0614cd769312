// Package engine sorts a directory tree into category folders and replays
// the resulting history for undo and redo.
//
// One Engine may serve many roots. Mutating operations take an advisory
// lock on the destination root, so two processes cannot sort or replay the
// same destination at once.
package engine

import (
	"errors"
	"fmt"

	"github.com/jamesainslie/shelve/pkg/shelve/category"
	"github.com/jamesainslie/shelve/pkg/shelve/hasher"
	"github.com/jamesainslie/shelve/pkg/shelve/history"
	"github.com/jamesainslie/shelve/pkg/shelve/logging"
)

var (
	// ErrNothingToUndo is returned by Undo when no applied entry exists.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by Redo when no undone entry follows.
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrInvalidRoot is returned for an empty or unusable root path.
	ErrInvalidRoot = errors.New("invalid root")

	// ErrBusy is returned when another operation holds the destination.
	ErrBusy = history.ErrBusy
)

// DuplicateScope selects what a candidate is compared against when
// duplicate detection is on.
type DuplicateScope string

const (
	// ScopeSession compares candidates of one sort with each other.
	ScopeSession DuplicateScope = "session"

	// ScopeDestination also compares against files already sorted into the
	// destination's category folders.
	ScopeDestination DuplicateScope = "destination"
)

// ParseDuplicateScope parses a scope name. Empty means ScopeSession.
func ParseDuplicateScope(s string) (DuplicateScope, error) {
	switch DuplicateScope(s) {
	case "", ScopeSession:
		return ScopeSession, nil
	case ScopeDestination:
		return ScopeDestination, nil
	default:
		return "", fmt.Errorf("unknown duplicate scope %q (want %q or %q)", s, ScopeSession, ScopeDestination)
	}
}

// Config configures an Engine.
type Config struct {
	// Categories is the classification table. Nil uses the default table.
	Categories *category.Table

	// Cache optionally remembers digests between runs.
	Cache hasher.DigestCache

	// Sniff infers a category from content for files without an extension.
	Sniff bool

	DuplicateScope DuplicateScope

	// HistoryFile is the log file name inside each destination root.
	HistoryFile string

	Logger *logging.Logger
}

// Engine runs sort, undo and redo operations.
type Engine struct {
	table   *category.Table
	cache   hasher.DigestCache
	sniffer category.Sniffer
	scope   DuplicateScope
	logName string
	logger  *logging.Logger
}

// New validates cfg and returns an Engine.
func New(cfg Config) (*Engine, error) {
	scope, err := ParseDuplicateScope(string(cfg.DuplicateScope))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		table:   cfg.Categories,
		cache:   cfg.Cache,
		sniffer: category.Sniffer{Enabled: cfg.Sniff},
		scope:   scope,
		logName: cfg.HistoryFile,
		logger:  cfg.Logger,
	}
	if e.table == nil {
		e.table = category.DefaultTable()
	}
	if e.logName == "" {
		e.logName = history.DefaultFile
	}
	if e.logger == nil {
		e.logger = logging.Get("engine")
	}
	return e, nil
}

// Categories returns the classification table in use.
func (e *Engine) Categories() *category.Table {
	return e.table
}

func (e *Engine) store(destRoot string) *history.Store {
	return history.NewStore(destRoot, e.logName)
}

// Reserved lists the base names that are never sort candidates. The default
// history name stays reserved when a custom one is configured.
func (e *Engine) Reserved() []string {
	names := []string{e.logName, e.logName + ".tmp", history.LockFile}
	if e.logName != history.DefaultFile {
		names = append(names, history.DefaultFile, history.DefaultFile+".tmp")
	}
	return names
}

// renamer is implemented by caches that can follow a file to a new path.
type renamer interface {
	Rename(from, to string) error
}

func (e *Engine) followMove(from, to string) {
	r, ok := e.cache.(renamer)
	if !ok {
		return
	}
	if err := r.Rename(from, to); err != nil {
		e.logger.Debug("digest cache rename failed", "from", from, "to", to, "error", err)
	}
}
