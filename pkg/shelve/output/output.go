// Package output renders shelve results (sorts, undo/redo replays, history
// and the category table) in several formats.
//
// Results are first converted into a Report, a format-neutral document with
// summary fields, a table and warnings. Formatters are looked up by name in
// a registry:
//
//	report := output.FromSummary(summary)
//	f, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := f.Format(&buf, report); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/shelve/pkg/shelve/logging"
)

var logger = logging.Get("output")

// Kind names what a Report describes.
type Kind string

const (
	KindSort       Kind = "sort"
	KindUndo       Kind = "undo"
	KindRedo       Kind = "redo"
	KindHistory    Kind = "history"
	KindCategories Kind = "categories"
)

// Field is one labelled summary value.
type Field struct {
	Label string
	Value string
}

// Column describes one table column.
type Column struct {
	Name string

	// Right aligns the column to the right.
	Right bool
}

// Report is a format-neutral rendering of a result.
type Report struct {
	Kind  Kind
	Title string

	// Fields are shown above the table, in order.
	Fields []Field

	Columns []Column
	Rows    [][]string

	// Status holds one status word per row ("moved", "duplicate", ...) used
	// for styling. It may be empty.
	Status []string

	// Paths lists the paths a result touched, for the paths formatters.
	Paths []string

	// Empty is shown instead of the table when there are no rows.
	Empty string

	Warnings []string

	// Data is the underlying result, encoded by the json and yaml formatters.
	Data any
}

// Formatter renders a Report.
type Formatter interface {
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// Render formats r with the named formatter.
func Render(name string, r *Report) (string, error) {
	f, err := Get(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := f.Format(&buf, r); err != nil {
		logger.Debug("format failed", "formatter", name, "kind", r.Kind, "error", err)
		return "", err
	}
	return buf.String(), nil
}
