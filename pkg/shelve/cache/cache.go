// Package cache persists file digests between runs so repeated duplicate
// detection over an unchanged tree does not re-read file content.
package cache

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/jamesainslie/shelve/pkg/shelve/logging"
)

// DefaultDir returns $XDG_CACHE_HOME/shelve/digests.
func DefaultDir() string {
	return filepath.Join(xdg.CacheHome, "shelve", "digests")
}

// DigestCache is a Badger-backed digest cache keyed by absolute path.
type DigestCache struct {
	store  *Store
	logger *logging.Logger
}

// Open opens or creates the cache in dir.
func Open(dir string) (*DigestCache, error) {
	store, err := OpenStore(dir)
	if err != nil {
		return nil, err
	}
	return newCache(store), nil
}

// OpenInMemory opens a cache that is discarded on Close.
func OpenInMemory() (*DigestCache, error) {
	store, err := OpenMemoryStore()
	if err != nil {
		return nil, err
	}
	return newCache(store), nil
}

func newCache(store *Store) *DigestCache {
	return &DigestCache{store: store, logger: logging.Get("cache")}
}

// Close closes the cache.
func (c *DigestCache) Close() error {
	return c.store.Close()
}

// Lookup returns the stored digest for path if its size and modification
// time are unchanged.
func (c *DigestCache) Lookup(path string, size int64, modTime time.Time) (string, bool) {
	entry, err := c.store.Get(path)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Debug("cache lookup failed", "path", path, "error", err)
		}
		return "", false
	}
	if entry.Size != size || entry.Mtime != modTime.UnixNano() {
		return "", false
	}
	return entry.Digest, true
}

// Store records the digest for path.
func (c *DigestCache) Store(path string, size int64, modTime time.Time, digest string) error {
	return c.store.Put(path, &Entry{Size: size, Mtime: modTime.UnixNano(), Digest: digest})
}

// Forget drops the entry for path. Moved files are forgotten under their old
// path so the cache does not accumulate entries for paths that no longer exist.
func (c *DigestCache) Forget(path string) error {
	return c.store.Delete(path)
}

// Rename moves an entry from one path to another, keeping the digest valid
// for the file at its new location.
func (c *DigestCache) Rename(from, to string) error {
	entry, err := c.store.Get(from)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := c.store.Put(to, entry); err != nil {
		return err
	}
	return c.store.Delete(from)
}

// Clear removes every entry under prefix, or all entries when prefix is
// empty, and returns the number removed.
func (c *DigestCache) Clear(prefix string) (int, error) {
	return c.store.DeletePrefix(prefix)
}

// Len returns the number of cached digests.
func (c *DigestCache) Len() (int, error) {
	return c.store.Count()
}
