// Package filter decides which scanned files become sort candidates.
package filter

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/jamesainslie/shelve/pkg/shelve/category"
)

// ErrInvalidPattern is returned when an exclude glob does not compile.
var ErrInvalidPattern = errors.New("invalid exclude pattern")

// ErrInvalidBounds is returned when MaxSize is set below MinSize.
var ErrInvalidBounds = errors.New("max size is smaller than min size")

// Filter holds the candidate criteria for one scan.
type Filter struct {
	// MinSize excludes files smaller than this many bytes.
	MinSize int64

	// MaxSize excludes files larger than this many bytes. Zero is unbounded.
	MaxSize int64

	// Exclude holds glob patterns. A file is excluded when a pattern matches
	// its absolute path or its base name.
	Exclude []string

	// Extensions is an allow-list of lowercase, dot-prefixed extensions.
	// Empty allows everything.
	Extensions []string

	// IncludeHidden keeps dot-prefixed files and directories.
	IncludeHidden bool

	excludes []glob.Glob
}

// Option configures a Filter.
type Option func(*Filter)

// New builds a Filter and compiles its exclude patterns.
func New(opts ...Option) (*Filter, error) {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}

	if f.MaxSize > 0 && f.MaxSize < f.MinSize {
		return nil, fmt.Errorf("%w: %d < %d", ErrInvalidBounds, f.MaxSize, f.MinSize)
	}

	f.excludes = make([]glob.Glob, 0, len(f.Exclude))
	for _, pattern := range f.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
		}
		f.excludes = append(f.excludes, g)
	}
	return f, nil
}

// WithMinSize sets the lower size bound. Negative values become zero.
func WithMinSize(n int64) Option {
	return func(f *Filter) {
		f.MinSize = max(n, 0)
	}
}

// WithMaxSize sets the upper size bound. Zero or negative means unbounded.
func WithMaxSize(n int64) Option {
	return func(f *Filter) {
		f.MaxSize = max(n, 0)
	}
}

// WithExclude appends exclude glob patterns. Blank patterns are dropped.
func WithExclude(patterns ...string) Option {
	return func(f *Filter) {
		for _, p := range patterns {
			if p = strings.TrimSpace(p); p != "" {
				f.Exclude = append(f.Exclude, p)
			}
		}
	}
}

// WithExtensions sets the extension allow-list, normalising each entry.
func WithExtensions(exts ...string) Option {
	return func(f *Filter) {
		f.Extensions = f.Extensions[:0]
		for _, e := range exts {
			if e = category.NormalizeExt(e); e != "" && !slices.Contains(f.Extensions, e) {
				f.Extensions = append(f.Extensions, e)
			}
		}
	}
}

// WithHidden controls whether dot-prefixed entries are kept.
func WithHidden(include bool) Option {
	return func(f *Filter) {
		f.IncludeHidden = include
	}
}

// Hidden reports whether rel, a path relative to the scan root, should be
// skipped because one of its segments starts with a dot.
func (f *Filter) Hidden(rel string) bool {
	if f.IncludeHidden || rel == "." || rel == "" {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}

// Excluded reports whether path matches an exclude pattern.
func (f *Filter) Excluded(path string) bool {
	if len(f.excludes) == 0 {
		return false
	}
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, g := range f.excludes {
		if g.Match(slashed) || g.Match(base) {
			return true
		}
	}
	return false
}

// AllowsExtension reports whether ext passes the allow-list.
func (f *Filter) AllowsExtension(ext string) bool {
	return len(f.Extensions) == 0 || slices.Contains(f.Extensions, strings.ToLower(ext))
}

// AllowsSize reports whether size is within the bounds.
func (f *Filter) AllowsSize(size int64) bool {
	if size < f.MinSize {
		return false
	}
	return f.MaxSize <= 0 || size <= f.MaxSize
}

// Match applies the exclude patterns, the extension allow-list and the size
// bounds, in that order, to a regular file.
func (f *Filter) Match(path string, size int64) bool {
	return !f.Excluded(path) && f.AllowsExtension(category.Ext(path)) && f.AllowsSize(size)
}
