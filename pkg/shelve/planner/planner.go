// Package planner computes where a file should land inside the destination
// root and picks a free name when that path is already taken.
package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/shelve/pkg/shelve/category"
)

// Destination returns dest/<category>/<name>, or, when preserve is set,
// dest/<category>/<dir of source relative to root>/<name>. If the relative
// path cannot be computed or leaves root, only the file name is used.
func Destination(source, root, dest, cat string, preserve bool) string {
	return join(filepath.Join(dest, cat), source, root, preserve)
}

// DuplicateDestination is Destination for files routed into the duplicates
// folder: dest/Duplicates/<category>/...
func DuplicateDestination(source, root, dest, cat string, preserve bool) string {
	return join(filepath.Join(dest, category.Duplicates, cat), source, root, preserve)
}

func join(base, source, root string, preserve bool) string {
	name := filepath.Base(source)
	if !preserve {
		return filepath.Join(base, name)
	}

	rel, err := filepath.Rel(root, source)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Join(base, name)
	}

	parent := filepath.Dir(rel)
	if parent == "." {
		return filepath.Join(base, name)
	}
	return filepath.Join(base, parent, name)
}

// ExistsFunc reports whether a path is taken.
type ExistsFunc func(path string) bool

// Exists is the filesystem-backed ExistsFunc. Any Lstat result other than
// "not exist" counts as taken, so unreadable entries are never overwritten.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !os.IsNotExist(err)
}

// ResolveCollision returns path unchanged when exists reports it free,
// otherwise the first free "name (N).ext" for N = 1, 2, ...
func ResolveCollision(path string, exists ExistsFunc) string {
	if !exists(path) {
		return path
	}

	dir := filepath.Dir(path)
	stem, ext := splitName(filepath.Base(path))
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if !exists(candidate) {
			return candidate
		}
	}
}

// Resolve is ResolveCollision against the filesystem.
func Resolve(path string) string {
	return ResolveCollision(path, Exists)
}

// splitName splits a base name into stem and extension, treating a single
// leading dot as part of the stem (".bashrc" has no extension).
func splitName(name string) (stem, ext string) {
	if strings.HasPrefix(name, ".") && strings.Count(name, ".") == 1 {
		return name, ""
	}
	ext = filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}
