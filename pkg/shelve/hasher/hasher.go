// Package hasher computes content digests and groups files with identical
// content. Grouping is two-phase: files are bucketed by size first and only
// buckets with more than one file are hashed.
package hasher

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jamesainslie/shelve/pkg/shelve/logging"
	"github.com/jamesainslie/shelve/pkg/shelve/types"
)

// ChunkSize is the read buffer used while streaming file content.
const ChunkSize = 1 << 20

// DigestCache remembers digests between runs. A lookup only hits when the
// stored size and modification time still match the file.
type DigestCache interface {
	Lookup(path string, size int64, modTime time.Time) (string, bool)
	Store(path string, size int64, modTime time.Time, digest string) error
}

// Digest streams the file at path through SHA-256 and returns the hex digest.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, bufio.NewReaderSize(f, ChunkSize)); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Hasher computes digests, consulting an optional cache. It is not safe for
// concurrent use.
type Hasher struct {
	cache    DigestCache
	computed int
	logger   *logging.Logger
}

// New creates a Hasher. cache may be nil.
func New(cache DigestCache) *Hasher {
	return &Hasher{
		cache:  cache,
		logger: logging.Get("hasher"),
	}
}

// Computed returns how many digests were computed from file content, not
// counting cache hits.
func (h *Hasher) Computed() int {
	return h.computed
}

// Digest returns the digest for c, from the cache when possible.
func (h *Hasher) Digest(c types.Candidate) (string, error) {
	if h.cache != nil {
		if d, ok := h.cache.Lookup(c.Path, c.Size, c.ModTime); ok {
			return d, nil
		}
	}

	d, err := Digest(c.Path)
	if err != nil {
		return "", err
	}
	h.computed++

	if h.cache != nil {
		if err := h.cache.Store(c.Path, c.Size, c.ModTime, d); err != nil {
			h.logger.Debug("digest cache store failed", "path", c.Path, "error", err)
		}
	}
	return d, nil
}
