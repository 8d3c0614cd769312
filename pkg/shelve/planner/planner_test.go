package planner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestination(t *testing.T) {
	t.Parallel()

	root := filepath.FromSlash("/data/in")
	dest := filepath.FromSlash("/data/out")

	tests := []struct {
		name     string
		source   string
		preserve bool
		want     string
	}{
		{
			name:     "flat",
			source:   "/data/in/sub/deep/a.jpg",
			preserve: false,
			want:     "/data/out/Images/a.jpg",
		},
		{
			name:     "preserve nested",
			source:   "/data/in/sub/deep/a.jpg",
			preserve: true,
			want:     "/data/out/Images/sub/deep/a.jpg",
		},
		{
			name:     "preserve top level",
			source:   "/data/in/a.jpg",
			preserve: true,
			want:     "/data/out/Images/a.jpg",
		},
		{
			name:     "source outside root falls back to name",
			source:   "/elsewhere/x/a.jpg",
			preserve: true,
			want:     "/data/out/Images/a.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Destination(filepath.FromSlash(tt.source), root, dest, "Images", tt.preserve)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestDuplicateDestination(t *testing.T) {
	t.Parallel()

	got := DuplicateDestination(filepath.FromSlash("/in/sub/a.txt"), filepath.FromSlash("/in"), filepath.FromSlash("/out"), "Documents", true)
	assert.Equal(t, filepath.FromSlash("/out/Duplicates/Documents/sub/a.txt"), got)

	got = DuplicateDestination(filepath.FromSlash("/in/sub/a.txt"), filepath.FromSlash("/in"), filepath.FromSlash("/out"), "Documents", false)
	assert.Equal(t, filepath.FromSlash("/out/Duplicates/Documents/a.txt"), got)
}

func TestResolveCollision(t *testing.T) {
	t.Parallel()

	taken := func(paths ...string) ExistsFunc {
		set := make(map[string]bool, len(paths))
		for _, p := range paths {
			set[filepath.FromSlash(p)] = true
		}
		return func(p string) bool { return set[p] }
	}

	tests := []struct {
		name  string
		path  string
		taken []string
		want  string
	}{
		{name: "free", path: "/d/name.txt", want: "/d/name.txt"},
		{name: "first suffix", path: "/d/name.txt", taken: []string{"/d/name.txt"}, want: "/d/name (1).txt"},
		{name: "second suffix", path: "/d/name.txt", taken: []string{"/d/name.txt", "/d/name (1).txt"}, want: "/d/name (2).txt"},
		{name: "gap is reused", path: "/d/name.txt", taken: []string{"/d/name.txt", "/d/name (2).txt"}, want: "/d/name (1).txt"},
		{name: "no extension", path: "/d/README", taken: []string{"/d/README"}, want: "/d/README (1)"},
		{name: "dotfile", path: "/d/.bashrc", taken: []string{"/d/.bashrc"}, want: "/d/.bashrc (1)"},
		{name: "double extension", path: "/d/a.tar.gz", taken: []string{"/d/a.tar.gz"}, want: "/d/a.tar (1).gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCollision(filepath.FromSlash(tt.path), taken(tt.taken...))
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestResolve_Filesystem(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	target := filepath.Join(dir, "name.txt")
	assert.Equal(t, target, Resolve(target))

	require.NoError(t, os.WriteFile(target, []byte("1"), 0o644))
	first := Resolve(target)
	assert.Equal(t, filepath.Join(dir, "name (1).txt"), first)

	require.NoError(t, os.WriteFile(first, []byte("2"), 0o644))
	assert.Equal(t, filepath.Join(dir, "name (2).txt"), Resolve(target))
}
