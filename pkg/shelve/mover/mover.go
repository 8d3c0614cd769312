// Package mover relocates files into the destination tree and back again.
// Moves are renames where possible with a copy-then-delete fallback across
// filesystems.
package mover

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/otiai10/copy"

	"github.com/jamesainslie/shelve/pkg/shelve/logging"
	"github.com/jamesainslie/shelve/pkg/shelve/planner"
)

var (
	// ErrOccupied is returned when a file would be restored over an existing path.
	ErrOccupied = errors.New("destination is occupied")

	// ErrMissing is returned when the file to be moved no longer exists.
	ErrMissing = errors.New("source no longer exists")
)

// Result describes one move.
type Result struct {
	Source      string
	Destination string

	// Moved is false for dry runs.
	Moved bool

	// CreatedDirs lists directories created for this move, parents first.
	CreatedDirs []string
}

// Mover performs moves for one operation. In dry-run mode it remembers the
// names it has handed out so repeated names in a preview get distinct
// suffixes. A Mover is not safe for concurrent use.
type Mover struct {
	reserved map[string]struct{}
	dirs     map[string]struct{}
	logger   *logging.Logger
}

// New creates a Mover.
func New() *Mover {
	return &Mover{
		reserved: make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
		logger:   logging.Get("mover"),
	}
}

func (m *Mover) taken(path string) bool {
	if _, ok := m.reserved[path]; ok {
		return true
	}
	return planner.Exists(path)
}

// Move relocates source to destination, picking "name (N).ext" when the
// destination is taken. With dryRun set nothing on disk changes and the
// result reports the path the file would get.
func (m *Mover) Move(source, destination string, dryRun bool) (Result, error) {
	res := Result{Source: source}

	final := planner.ResolveCollision(destination, m.taken)
	res.Destination = final

	missing := m.missingDirs(filepath.Dir(final))

	if dryRun {
		m.reserved[final] = struct{}{}
		for _, d := range missing {
			m.dirs[d] = struct{}{}
		}
		res.CreatedDirs = missing
		return res, nil
	}

	if _, err := os.Lstat(source); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, fmt.Errorf("%w: %s", ErrMissing, source)
		}
		return res, err
	}

	created, err := createDirs(missing)
	res.CreatedDirs = created
	if err != nil {
		return res, err
	}

	if err := relocate(source, final); err != nil {
		return res, err
	}
	res.Moved = true
	m.logger.Debug("moved", "src", source, "dst", final)
	return res, nil
}

// missingDirs returns dir and its ancestors that do not exist yet, parents
// first. Directories already planned in this dry run count as existing.
func (m *Mover) missingDirs(dir string) []string {
	var out []string
	for {
		if _, planned := m.dirs[dir]; planned {
			break
		}
		if _, err := os.Lstat(dir); err == nil {
			break
		}
		out = append(out, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	slices.Reverse(out)
	return out
}

// Restore moves a file from its current location back to to. It refuses
// with ErrOccupied when to exists and recreates missing parents of to.
func (m *Mover) Restore(from, to string) ([]string, error) {
	if planner.Exists(to) {
		return nil, fmt.Errorf("%w: %s", ErrOccupied, to)
	}
	if _, err := os.Lstat(from); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, from)
		}
		return nil, err
	}

	created, err := createDirs(m.missingDirs(filepath.Dir(to)))
	if err != nil {
		return created, err
	}
	if err := relocate(from, to); err != nil {
		return created, err
	}
	m.logger.Debug("restored", "from", from, "to", to)
	return created, nil
}

// CreateDirs creates each directory that does not exist yet and returns the
// ones it created.
func (m *Mover) CreateDirs(dirs []string) ([]string, error) {
	var created []string
	for _, d := range dirs {
		made, err := createDirs(m.missingDirs(d))
		created = append(created, made...)
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

func createDirs(dirs []string) ([]string, error) {
	created := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if err := os.Mkdir(d, 0o755); err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return created, fmt.Errorf("creating %s: %w", d, err)
		}
		created = append(created, d)
	}
	return created, nil
}

// RemoveEmptyDirs removes the given directories deepest first, skipping any
// that are missing or not empty, and returns the ones it removed.
func RemoveEmptyDirs(dirs []string) []string {
	ordered := slices.Clone(dirs)
	slices.SortFunc(ordered, func(a, b string) int {
		return cmp.Or(cmp.Compare(depth(b), depth(a)), cmp.Compare(a, b))
	})
	ordered = slices.Compact(ordered)

	var removed []string
	for _, d := range ordered {
		entries, err := os.ReadDir(d)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(d); err == nil {
			removed = append(removed, d)
		}
	}
	return removed
}

func depth(path string) int {
	return strings.Count(filepath.Clean(path), string(filepath.Separator))
}

// relocate renames src to dst, copying and deleting when the rename crosses
// filesystems. A copy whose source cannot be removed is rolled back so the
// file never exists in both places.
func relocate(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !crossDevice(err) {
		return err
	}

	if err := copy.Copy(src, dst, copy.Options{PreserveTimes: true}); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("removing %s after copy: %w", src, err)
	}
	return nil
}
