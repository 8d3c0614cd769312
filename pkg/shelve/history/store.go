package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/jamesainslie/shelve/pkg/shelve/logging"
)

// Default file names inside a destination root.
const (
	DefaultFile = ".shelve_history.json"
	LockFile    = ".shelve.lock"
)

// ErrBusy is returned when another process holds the destination lock.
var ErrBusy = errors.New("another shelve operation is running on this destination")

// Store reads and writes the log of one destination root.
type Store struct {
	root   string
	name   string
	logger *logging.Logger
}

// NewStore returns a Store for destRoot. An empty name uses DefaultFile.
func NewStore(destRoot, name string) *Store {
	if name == "" {
		name = DefaultFile
	}
	return &Store{root: destRoot, name: name, logger: logging.Get("history")}
}

// Path returns the log file path.
func (s *Store) Path() string {
	return filepath.Join(s.root, s.name)
}

// Load reads the log. A missing, unreadable, corrupt or inconsistent file
// yields an empty log; the problem is logged, not returned.
func (s *Store) Load() *Log {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("history unreadable, starting empty", "path", s.Path(), "error", err)
		}
		return Empty()
	}

	var l Log
	if err := json.Unmarshal(data, &l); err != nil {
		s.logger.Warn("history corrupt, starting empty", "path", s.Path(), "error", err)
		return Empty()
	}
	if l.Entries == nil {
		l.Entries = []Entry{}
	}
	if !l.Valid() {
		s.logger.Warn("history pointer out of range, starting empty",
			"path", s.Path(), "pointer", l.Pointer, "entries", len(l.Entries))
		return Empty()
	}
	return &l
}

// Save writes the log atomically through a temporary file.
func (s *Store) Save(l *Log) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("creating destination root: %w", err)
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling history: %w", err)
	}

	path := s.Path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing history: %w", err)
	}
	return nil
}

// Lock is an advisory lock serialising mutating operations on one
// destination root across processes.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the lock for destRoot without waiting. It returns ErrBusy
// when another holder exists.
func Acquire(destRoot string) (*Lock, error) {
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating destination root: %w", err)
	}
	fl := flock.New(filepath.Join(destRoot, LockFile))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", destRoot, err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks. The lock file stays in place.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
