package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/shelve/pkg/shelve/filter"
	"github.com/jamesainslie/shelve/pkg/shelve/history"
	"github.com/jamesainslie/shelve/pkg/shelve/scanner"
)

func tempRoot(t *testing.T) string {
	t.Helper()
	root, err := scanner.Canonical(t.TempDir())
	require.NoError(t, err)
	return root
}

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755))
	}
}

func newWatcher(t *testing.T, opts Options) *Watcher {
	t.Helper()
	w, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestNew_Errors(t *testing.T) {
	root := tempRoot(t)
	file := filepath.Join(root, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := New(Options{Root: filepath.Join(root, "missing")})
	assert.Error(t, err)

	_, err = New(Options{Root: file})
	assert.ErrorIs(t, err, scanner.ErrNotDirectory)

	w := newWatcher(t, Options{Root: root})
	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.Equal(t, root, w.Root())
}

func TestWatch_SkipsSortedAndHiddenDirs(t *testing.T) {
	root := tempRoot(t)
	mkdirs(t, root, "inbox/deep", "Images/x", "Duplicates/Images", ".git/objects", "node_modules")

	f, err := filter.New(filter.WithExclude("node_modules"))
	require.NoError(t, err)

	w := newWatcher(t, Options{Root: root, Filter: f})
	require.NoError(t, w.Watch())

	assert.Equal(t, []string{
		root,
		filepath.Join(root, "inbox"),
		filepath.Join(root, "inbox", "deep"),
	}, w.Watched())
}

func TestWatch_NestedDestination(t *testing.T) {
	root := tempRoot(t)
	mkdirs(t, root, "a", "sorted/Images")

	w := newWatcher(t, Options{Root: root, DestRoot: filepath.Join(root, "sorted")})
	require.NoError(t, w.Watch())
	assert.Equal(t, []string{root, filepath.Join(root, "a")}, w.Watched())
}

func TestRelevant(t *testing.T) {
	root := tempRoot(t)
	mkdirs(t, root, "Images", "sub")
	write := func(rel string) string {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		return p
	}

	w := newWatcher(t, Options{Root: root})
	require.NoError(t, w.Watch())

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"new file", fsnotify.Event{Name: write("a.txt"), Op: fsnotify.Create}, true},
		{"written file", fsnotify.Event{Name: write("sub/b.txt"), Op: fsnotify.Write}, true},
		{"removed file", fsnotify.Event{Name: filepath.Join(root, "gone.txt"), Op: fsnotify.Remove}, false},
		{"renamed away", fsnotify.Event{Name: filepath.Join(root, "a.txt"), Op: fsnotify.Rename}, false},
		{"chmod", fsnotify.Event{Name: filepath.Join(root, "a.txt"), Op: fsnotify.Chmod}, false},
		{"dotfile", fsnotify.Event{Name: write(".env"), Op: fsnotify.Create}, false},
		{"history file", fsnotify.Event{Name: write(history.DefaultFile), Op: fsnotify.Write}, false},
		{"lock file", fsnotify.Event{Name: write(history.LockFile), Op: fsnotify.Create}, false},
		{"category folder", fsnotify.Event{Name: filepath.Join(root, "Images"), Op: fsnotify.Create}, false},
		{"file in category", fsnotify.Event{Name: write("Images/c.jpg"), Op: fsnotify.Create}, false},
		{"vanished", fsnotify.Event{Name: filepath.Join(root, "never"), Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.ev))
		})
	}
}

func TestRelevant_ReservedNamesWithHiddenFiles(t *testing.T) {
	root := tempRoot(t)
	mkdirs(t, root, "old")
	f, err := filter.New(filter.WithHidden(true))
	require.NoError(t, err)

	w := newWatcher(t, Options{Root: root, DestRoot: filepath.Join(root, "sorted"), Filter: f})
	require.NoError(t, w.Watch())

	for _, rel := range []string{history.DefaultFile, "old/" + history.DefaultFile, "old/" + history.LockFile} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))
		assert.False(t, w.relevant(fsnotify.Event{Name: p, Op: fsnotify.Create}), rel)
	}

	p := filepath.Join(root, "old", ".env")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	assert.True(t, w.relevant(fsnotify.Event{Name: p, Op: fsnotify.Create}))
}

func TestRelevant_NewDirectoryIsWatched(t *testing.T) {
	root := tempRoot(t)
	w := newWatcher(t, Options{Root: root})
	require.NoError(t, w.Watch())

	mkdirs(t, root, "drop/inner")
	assert.True(t, w.relevant(fsnotify.Event{Name: filepath.Join(root, "drop"), Op: fsnotify.Create}))
	assert.Contains(t, w.Watched(), filepath.Join(root, "drop", "inner"))

	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(root, "drop"), Op: fsnotify.Remove}))
	assert.NotContains(t, w.Watched(), filepath.Join(root, "drop"))
	assert.NotContains(t, w.Watched(), filepath.Join(root, "drop", "inner"))
}

func TestRun_DebouncesAndSorts(t *testing.T) {
	root := tempRoot(t)
	w := newWatcher(t, Options{Root: root, Debounce: 200 * time.Millisecond})
	require.NoError(t, w.Watch())

	var runs atomic.Int32
	done := make(chan struct{}, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- w.Run(ctx, func(context.Context) error {
			runs.Add(1)
			done <- struct{}{}
			return nil
		})
	}()

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(name), 0o644))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sort was not triggered")
	}
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load(), "a burst of events triggers one sort")

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_RootRemoved(t *testing.T) {
	parent := tempRoot(t)
	root := filepath.Join(parent, "watched")
	mkdirs(t, parent, "watched")

	w := newWatcher(t, Options{Root: root, Debounce: 50 * time.Millisecond})
	require.NoError(t, w.Watch())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- w.Run(ctx, func(context.Context) error {
			_ = os.RemoveAll(root)
			return os.ErrNotExist
		})
	}()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), nil, 0o644))

	select {
	case err := <-errc:
		assert.Error(t, err)
	case <-ctx.Done():
		t.Fatal("Run did not report the removed root")
	}
}

func TestClose_Idempotent(t *testing.T) {
	w, err := New(Options{Root: tempRoot(t)})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Empty(t, w.Watched())
}
