package output

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/shelve/pkg/shelve/category"
	"github.com/jamesainslie/shelve/pkg/shelve/engine"
	"github.com/jamesainslie/shelve/pkg/shelve/history"
	"github.com/jamesainslie/shelve/pkg/shelve/types"
)

type stubFormatter struct{}

func (stubFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString(string(r.Kind))
	return nil
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("b", func() Formatter { return stubFormatter{} })
	reg.Register("a", func() Formatter { return stubFormatter{} })

	assert.Equal(t, []string{"a", "b"}, reg.Available())

	f, err := reg.Get("a")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, &Report{Kind: KindSort}))
	assert.Equal(t, "sort", buf.String())

	_, err = reg.Get("missing")
	assert.Error(t, err)
}

func TestDefaultRegistry(t *testing.T) {
	for _, name := range []string{"pretty", "plain", "table", "csv", "markdown", "json", "yaml", "paths", "null", "template"} {
		assert.Contains(t, Available(), name)
	}
	_, err := Render("nope", &Report{})
	assert.Error(t, err)
}

func sampleSummary() *engine.Summary {
	root := filepath.FromSlash("/data/in")
	dest := filepath.FromSlash("/data/out")
	return &engine.Summary{
		ScanRoot:        root,
		DestRoot:        dest,
		Total:           3,
		Moved:           2,
		Duplicates:      1,
		DuplicateGroups: 1,
		Items: []history.Item{
			{Src: filepath.Join(root, "a.jpg"), Dst: filepath.Join(dest, "Images", "a.jpg"), Moved: true},
			{Src: filepath.Join(root, "b.txt"), Dst: filepath.Join(dest, category.Duplicates, "Documents", "b.txt"), Moved: true},
			{Src: filepath.Join(root, "c.txt"), Dst: filepath.Join(dest, "Documents", "c.txt")},
		},
		Errors: []types.ItemError{
			types.NewItemError("move", filepath.Join(root, "c.txt"), errors.New("permission denied")),
		},
		Elapsed: 1500 * time.Millisecond,
	}
}

func TestFromSummary(t *testing.T) {
	r := FromSummary(sampleSummary())

	assert.Equal(t, KindSort, r.Kind)
	assert.Equal(t, "Sorted", r.Title)
	assert.Equal(t, []string{StatusMoved, StatusDuplicate, StatusFailed}, r.Status)
	require.Len(t, r.Rows, 3)
	assert.Equal(t, []string{StatusMoved, "a.jpg", filepath.Join("Images", "a.jpg")}, r.Rows[0])
	assert.Len(t, r.Paths, 2, "failed items are not listed as paths")
	require.Len(t, r.Warnings, 1)
	assert.Contains(t, r.Warnings[0], "permission denied")

	var labels []string
	for _, f := range r.Fields {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{"Source", "Destination", "Files", "Moved", "Duplicates", "Elapsed"}, labels)
}

func TestFromSummary_DryRunAndInterrupted(t *testing.T) {
	s := sampleSummary()
	s.DryRun = true
	s.Errors = nil
	s.Interrupted = true
	s.LogError = "disk full"

	r := FromSummary(s)
	assert.Equal(t, "Dry run", r.Title)
	assert.Equal(t, []string{StatusPlanned, StatusDuplicate, StatusPlanned}, r.Status)
	assert.Len(t, r.Paths, 3)
	require.Len(t, r.Warnings, 2)
	assert.Contains(t, r.Warnings[0], "interrupted")
	assert.Contains(t, r.Warnings[1], "disk full")
}

func TestFromReplay(t *testing.T) {
	res := &engine.ReplayResult{
		EntryID:     "1234",
		DestRoot:    "/d",
		Replayed:    3,
		Skipped:     1,
		Errors:      []types.ItemError{{Path: "/d/x", Op: "restore", Err: "occupied"}},
		DirsRemoved: []string{"/d/Images"},
		DirsCreated: []string{"/in/sub"},
		Pointer:     -1,
	}

	r := FromReplay(KindUndo, res)
	assert.Equal(t, "Undone", r.Title)
	assert.Equal(t, [][]string{{"created", "/in/sub"}, {"removed", "/d/Images"}}, r.Rows)
	assert.Equal(t, []string{"restore /d/x: occupied"}, r.Warnings)

	assert.Equal(t, "Redone", FromReplay(KindRedo, res).Title)

	res.Interrupted = true
	r = FromReplay(KindUndo, res)
	assert.Equal(t, "undo interrupted; run it again to finish the remaining files", r.Warnings[0])
}

func TestFromHistory(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	log := history.Empty()
	log.Append(history.Entry{ID: "aaaaaaaa-1111", Timestamp: float64(now.Add(-2 * time.Hour).Unix()), Root: "/one",
		Items: []history.Item{{Src: "a", Dst: "b", Moved: true}}})
	log.Append(history.Entry{ID: "bbbbbbbb-2222", Timestamp: float64(now.Add(-time.Minute).Unix()), Root: "/two"})
	log.CommitUndo()

	r := FromHistory("/dest", log, now)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, []string{"1", StatusUndone, "1 minute ago", "0", "/two", "bbbbbbbb"}, r.Rows[0])
	assert.Equal(t, []string{"0", StatusApplied, "2 hours ago", "1", "/one", "aaaaaaaa"}, r.Rows[1])

	view, ok := r.Data.(HistoryView)
	require.True(t, ok)
	assert.Equal(t, 0, view.Pointer)
	assert.True(t, view.Entries[0].Applied)
	assert.False(t, view.Entries[1].Applied)

	empty := FromHistory("/dest", history.Empty(), now)
	assert.Empty(t, empty.Rows)
	assert.Equal(t, "No history", empty.Empty)
}

func TestFromCategories(t *testing.T) {
	table := category.MustTable([]category.Category{{Name: "Notes", Extensions: []string{"md", ".TXT"}}})
	r := FromCategories(table)

	assert.Equal(t, [][]string{
		{"Notes", ".md .txt"},
		{category.Unmatched, "(everything else)"},
	}, r.Rows)
	assert.Equal(t, []string{"Notes", category.Unmatched}, r.Paths)
}

func TestRelTo(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"/a", "/a/b/c", filepath.Join("b", "c")},
		{"/a", "/x/y", "/x/y"},
		{"/a/b", "/a", "/a"},
	}
	for _, tt := range tests {
		assert.Equal(t, filepath.FromSlash(tt.want), relTo(filepath.FromSlash(tt.base), filepath.FromSlash(tt.path)))
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}
