package output

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/shelve/pkg/shelve/category"
	"github.com/jamesainslie/shelve/pkg/shelve/engine"
	"github.com/jamesainslie/shelve/pkg/shelve/history"
	"github.com/jamesainslie/shelve/pkg/shelve/types"
)

// Row status words.
const (
	StatusMoved     = "moved"
	StatusDuplicate = "duplicate"
	StatusPlanned   = "planned"
	StatusFailed    = "failed"
	StatusApplied   = "applied"
	StatusUndone    = "undone"
)

// FromSummary builds a report for a sort.
func FromSummary(s *engine.Summary) *Report {
	title := "Sorted"
	if s.DryRun {
		title = "Dry run"
	}

	r := &Report{
		Kind:  KindSort,
		Title: title,
		Fields: []Field{
			{"Source", s.ScanRoot},
			{"Destination", s.DestRoot},
			{"Files", humanize.Comma(int64(s.Total))},
			{"Moved", humanize.Comma(int64(s.Moved))},
		},
		Columns: []Column{{Name: "STATUS"}, {Name: "FROM"}, {Name: "TO"}},
		Empty:   "No files to sort",
		Data:    s,
	}
	if s.Duplicates > 0 {
		r.Fields = append(r.Fields, Field{"Duplicates", fmt.Sprintf("%d in %d groups", s.Duplicates, s.DuplicateGroups)})
	}
	r.Fields = append(r.Fields, Field{"Elapsed", formatDuration(s.Elapsed)})

	failed := failedPaths(s.Errors, "move")
	for _, it := range s.Items {
		status := StatusMoved
		switch {
		case failed[it.Src]:
			status = StatusFailed
		case s.DryRun:
			status = StatusPlanned
		}
		if status != StatusFailed && s.IsDuplicate(it) {
			status = StatusDuplicate
		}
		r.Status = append(r.Status, status)
		r.Rows = append(r.Rows, []string{status, relTo(s.ScanRoot, it.Src), relTo(s.DestRoot, it.Dst)})
		if it.Moved || s.DryRun {
			r.Paths = append(r.Paths, it.Dst)
		}
	}

	if s.Interrupted {
		r.Warnings = append(r.Warnings, "sort interrupted; moved files were recorded and can be undone")
	}
	r.Warnings = append(r.Warnings, itemWarnings(s.Errors)...)
	if s.LogError != "" {
		r.Warnings = append(r.Warnings, "history not saved: "+s.LogError)
	}
	return r
}

// FromReplay builds a report for an undo or redo.
func FromReplay(kind Kind, res *engine.ReplayResult) *Report {
	title := "Undone"
	if kind == KindRedo {
		title = "Redone"
	}

	r := &Report{
		Kind:  kind,
		Title: title,
		Fields: []Field{
			{"Destination", res.DestRoot},
			{"Entry", res.EntryID},
			{"Replayed", humanize.Comma(int64(res.Replayed))},
			{"Skipped", humanize.Comma(int64(res.Skipped))},
			{"Pointer", fmt.Sprint(res.Pointer)},
		},
		Columns: []Column{{Name: "CHANGE"}, {Name: "DIRECTORY"}},
		Empty:   "No directories changed",
		Data:    res,
	}
	for _, d := range res.DirsCreated {
		r.Status = append(r.Status, "created")
		r.Rows = append(r.Rows, []string{"created", d})
		r.Paths = append(r.Paths, d)
	}
	for _, d := range res.DirsRemoved {
		r.Status = append(r.Status, "removed")
		r.Rows = append(r.Rows, []string{"removed", d})
		r.Paths = append(r.Paths, d)
	}

	if res.Interrupted {
		r.Warnings = append(r.Warnings, string(kind)+" interrupted; run it again to finish the remaining files")
	}
	r.Warnings = append(r.Warnings, itemWarnings(res.Errors)...)
	if res.LogError != "" {
		r.Warnings = append(r.Warnings, "history not saved: "+res.LogError)
	}
	return r
}

// HistoryView is the encoded form of a destination's history.
type HistoryView struct {
	DestRoot string         `json:"dest_root" yaml:"dest_root"`
	Pointer  int            `json:"pointer" yaml:"pointer"`
	Entries  []HistoryEntry `json:"entries" yaml:"entries"`
}

// HistoryEntry summarises one history entry.
type HistoryEntry struct {
	Index       int       `json:"index" yaml:"index"`
	ID          string    `json:"id,omitempty" yaml:"id,omitempty"`
	Time        time.Time `json:"time" yaml:"time"`
	Root        string    `json:"root" yaml:"root"`
	Moved       int       `json:"moved" yaml:"moved"`
	CreatedDirs int       `json:"created_dirs" yaml:"created_dirs"`
	Applied     bool      `json:"applied" yaml:"applied"`
}

// FromHistory builds a report listing the entries of a log, newest first.
func FromHistory(destRoot string, log *history.Log, now time.Time) *Report {
	view := HistoryView{DestRoot: destRoot, Pointer: log.Pointer, Entries: []HistoryEntry{}}
	for i, e := range log.Entries {
		view.Entries = append(view.Entries, HistoryEntry{
			Index:       i,
			ID:          e.ID,
			Time:        e.Time(),
			Root:        e.Root,
			Moved:       e.MovedCount(),
			CreatedDirs: len(e.CreatedDirs),
			Applied:     i <= log.Pointer,
		})
	}

	r := &Report{
		Kind:  KindHistory,
		Title: "History",
		Fields: []Field{
			{"Destination", destRoot},
			{"Entries", fmt.Sprint(len(log.Entries))},
			{"Applied", fmt.Sprint(log.Pointer + 1)},
		},
		Columns: []Column{
			{Name: "#", Right: true},
			{Name: "STATE"},
			{Name: "WHEN"},
			{Name: "FILES", Right: true},
			{Name: "ROOT"},
			{Name: "ID"},
		},
		Empty: "No history",
		Data:  view,
	}

	for i := len(view.Entries) - 1; i >= 0; i-- {
		e := view.Entries[i]
		state := StatusUndone
		if e.Applied {
			state = StatusApplied
		}
		r.Status = append(r.Status, state)
		r.Rows = append(r.Rows, []string{
			fmt.Sprint(e.Index),
			state,
			humanize.RelTime(e.Time, now, "ago", "from now"),
			humanize.Comma(int64(e.Moved)),
			e.Root,
			shortID(e.ID),
		})
		r.Paths = append(r.Paths, e.Root)
	}
	return r
}

// FromCategories builds a report of a category table, including the
// catch-all folder.
func FromCategories(t *category.Table) *Report {
	cats := t.Categories()
	cats = append(cats, category.Category{Name: category.Unmatched, Extensions: []string{}})

	r := &Report{
		Kind:    KindCategories,
		Title:   "Categories",
		Fields:  []Field{{"Categories", fmt.Sprint(t.Len())}},
		Columns: []Column{{Name: "CATEGORY"}, {Name: "EXTENSIONS"}},
		Empty:   "No categories",
		Data:    cats,
	}
	for _, c := range cats {
		exts := strings.Join(c.Extensions, " ")
		if c.Name == category.Unmatched {
			exts = "(everything else)"
		}
		r.Rows = append(r.Rows, []string{c.Name, exts})
		r.Paths = append(r.Paths, c.Name)
	}
	return r
}

func failedPaths(errs []types.ItemError, op string) map[string]bool {
	out := make(map[string]bool, len(errs))
	for _, e := range errs {
		if e.Op == op {
			out[e.Path] = true
		}
	}
	return out
}

func itemWarnings(errs []types.ItemError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

// relTo shortens path relative to base when it lies inside it.
func relTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
