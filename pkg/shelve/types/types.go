// Package types provides the data types shared across shelve's packages:
// scan candidates, per-item errors, and size parsing and formatting helpers.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// Candidate is a file selected by a scan for sorting.
type Candidate struct {
	// Path is the absolute path to the file.
	Path string `json:"path" yaml:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// ModTime is the last modification time, used to validate cached digests.
	ModTime time.Time `json:"mod_time"`
}

// ItemError records a failure for one file. Operations collect these and
// keep going rather than aborting the batch.
type ItemError struct {
	// Path is the file the operation was working on.
	Path string `json:"path" yaml:"path"`

	// Op names the step that failed ("move", "hash", "restore", ...).
	Op string `json:"op" yaml:"op"`

	// Err is the error message.
	Err string `json:"error" yaml:"error"`
}

// Error implements the error interface.
func (e ItemError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

// NewItemError builds an ItemError from an error value.
func NewItemError(op, path string, err error) ItemError {
	return ItemError{Path: path, Op: op, Err: err.Error()}
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ErrZeroBound is returned by ParseUpperBound for a size of zero, which
// would read as "no bound".
var ErrZeroBound = errors.New("upper size bound must be positive; leave it empty for no bound")

// ParseSize parses a human-readable size string and returns the size in bytes.
// It accepts plain bytes ("1024") and K, M, G, T units with optional "B" or
// "iB" suffixes, case-insensitive. All units are binary. Decimal values are
// truncated to the nearest byte.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// ParseOptionalSize is ParseSize where an empty string means "no bound" (0).
func ParseOptionalSize(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return ParseSize(s)
}

// ParseUpperBound is ParseOptionalSize for a maximum size. A bound that
// parses to zero is rejected with ErrZeroBound.
func ParseUpperBound(s string) (int64, error) {
	n, err := ParseOptionalSize(s)
	if err != nil {
		return 0, err
	}
	if n == 0 && strings.TrimSpace(s) != "" {
		return 0, ErrZeroBound
	}
	return n, nil
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units, e.g. FormatSize(1536*1024) returns "1.5 MiB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
