// Package category maps file extensions to the category folders shelve
// sorts files into. A Table is an ordered list of categories; lookups walk
// the list in declaration order and the first category that lists an
// extension wins.
package category

import (
	"errors"
	"fmt"
	"strings"
)

// Unmatched is the catch-all category for extensions no category lists.
const Unmatched = "Others"

// Duplicates is the folder duplicate files are routed into. It is not a
// category itself; files land in Duplicates/<category>.
const Duplicates = "Duplicates"

// Category is a named set of lowercase extensions, each with a leading dot.
type Category struct {
	Name       string   `json:"name" yaml:"name" mapstructure:"name"`
	Extensions []string `json:"extensions" yaml:"extensions" mapstructure:"extensions"`
}

// ErrInvalidTable is returned when a table definition cannot be used.
var ErrInvalidTable = errors.New("invalid category table")

// Table is an immutable, ordered category list.
type Table struct {
	categories []Category
	index      map[string]string // ext -> first category listing it
}

// NewTable builds a Table from the given categories. Extensions are
// normalised to lowercase with a leading dot. Declaration order is kept.
func NewTable(categories []Category) (*Table, error) {
	t := &Table{
		categories: make([]Category, 0, len(categories)),
		index:      make(map[string]string),
	}

	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category with empty name", ErrInvalidTable)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidTable, name)
		}
		if name == Unmatched || name == Duplicates {
			return nil, fmt.Errorf("%w: %q is reserved", ErrInvalidTable, name)
		}
		seen[name] = true

		exts := make([]string, 0, len(c.Extensions))
		for _, ext := range c.Extensions {
			ext = NormalizeExt(ext)
			if ext == "" {
				continue
			}
			exts = append(exts, ext)
			if _, ok := t.index[ext]; !ok {
				t.index[ext] = name
			}
		}
		t.categories = append(t.categories, Category{Name: name, Extensions: exts})
	}

	return t, nil
}

// MustTable is like NewTable but panics on error. Intended for package-level
// tables built from literals.
func MustTable(categories []Category) *Table {
	t, err := NewTable(categories)
	if err != nil {
		panic(err)
	}
	return t
}

// NormalizeExt lowercases ext and ensures it carries a leading dot.
// An empty or bare "." input yields "".
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// For returns the category for the given extension, or Unmatched.
func (t *Table) For(ext string) string {
	ext = NormalizeExt(ext)
	if ext == "" {
		return Unmatched
	}
	if name, ok := t.index[ext]; ok {
		return name
	}
	return Unmatched
}

// Names returns the category names in declaration order, followed by
// Unmatched.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.categories)+1)
	for _, c := range t.categories {
		names = append(names, c.Name)
	}
	return append(names, Unmatched)
}

// Has reports whether name is a folder this table can produce, including
// Unmatched.
func (t *Table) Has(name string) bool {
	if name == Unmatched {
		return true
	}
	for _, c := range t.categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Categories returns a copy of the table's categories.
func (t *Table) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = Category{Name: c.Name, Extensions: append([]string(nil), c.Extensions...)}
	}
	return out
}

// Len returns the number of declared categories, not counting Unmatched.
func (t *Table) Len() int {
	return len(t.categories)
}
