// Package history persists the undo/redo log kept in each destination root.
//
// The log is a list of entries plus a pointer to the last applied entry.
// The pointer ranges over -1..len(Entries)-1; -1 means nothing is applied.
// Append discards any entries after the pointer, so a new sort after an undo
// drops the redo branch.
package history

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Item records one file handled by a sort.
type Item struct {
	Src   string `json:"src" yaml:"src"`
	Dst   string `json:"dst" yaml:"dst"`
	Moved bool   `json:"moved" yaml:"moved"`
}

// Entry records one sort.
type Entry struct {
	// ID identifies the entry. Older logs may not carry one.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Timestamp is seconds since the Unix epoch.
	Timestamp float64 `json:"timestamp" yaml:"timestamp"`

	Root        string   `json:"root" yaml:"root"`
	DestRoot    string   `json:"dest_root" yaml:"dest_root"`
	Items       []Item   `json:"items" yaml:"items"`
	CreatedDirs []string `json:"created_dirs" yaml:"created_dirs"`
}

// NewEntry returns an entry stamped with a fresh ID and the current time.
func NewEntry(root, destRoot string, items []Item, createdDirs []string) Entry {
	if items == nil {
		items = []Item{}
	}
	if createdDirs == nil {
		createdDirs = []string{}
	}
	return Entry{
		ID:          uuid.NewString(),
		Timestamp:   toSeconds(time.Now()),
		Root:        root,
		DestRoot:    destRoot,
		Items:       items,
		CreatedDirs: createdDirs,
	}
}

// Time returns the entry timestamp as a time.Time.
func (e Entry) Time() time.Time {
	sec, frac := math.Modf(e.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// MovedCount returns how many items were actually moved.
func (e Entry) MovedCount() int {
	n := 0
	for _, it := range e.Items {
		if it.Moved {
			n++
		}
	}
	return n
}

func toSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Log is the persisted history of one destination root.
type Log struct {
	Pointer int     `json:"pointer" yaml:"pointer"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Empty returns a log with no entries.
func Empty() *Log {
	return &Log{Pointer: -1, Entries: []Entry{}}
}

// Valid reports whether the pointer is within -1..len(Entries)-1.
func (l *Log) Valid() bool {
	return l.Pointer >= -1 && l.Pointer < len(l.Entries)
}

// Append drops every entry after the pointer, adds e and points at it.
func (l *Log) Append(e Entry) {
	l.Entries = append(l.Entries[:l.Pointer+1], e)
	l.Pointer = len(l.Entries) - 1
}

// CanUndo reports whether an applied entry exists.
func (l *Log) CanUndo() bool {
	return l.Pointer >= 0 && l.Pointer < len(l.Entries)
}

// CanRedo reports whether an undone entry follows the pointer.
func (l *Log) CanRedo() bool {
	return l.Pointer+1 >= 0 && l.Pointer+1 < len(l.Entries)
}

// Current returns the entry at the pointer.
func (l *Log) Current() (Entry, bool) {
	if !l.CanUndo() {
		return Entry{}, false
	}
	return l.Entries[l.Pointer], true
}

// UndoTarget returns the entry an undo would reverse.
func (l *Log) UndoTarget() (Entry, bool) {
	return l.Current()
}

// CommitUndo moves the pointer down after a successful undo replay.
func (l *Log) CommitUndo() bool {
	if !l.CanUndo() {
		return false
	}
	l.Pointer--
	return true
}

// RedoTarget returns the entry a redo would replay.
func (l *Log) RedoTarget() (Entry, bool) {
	if !l.CanRedo() {
		return Entry{}, false
	}
	return l.Entries[l.Pointer+1], true
}

// CommitRedo moves the pointer up after a redo replay.
func (l *Log) CommitRedo() bool {
	if !l.CanRedo() {
		return false
	}
	l.Pointer++
	return true
}

// Applied returns the entries up to and including the pointer.
func (l *Log) Applied() []Entry {
	return l.Entries[:l.Pointer+1]
}
