package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *DigestCache {
	t.Helper()
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestEntryEncodeDecode(t *testing.T) {
	in := &Entry{Size: 42, Mtime: 1700000000123456789, Digest: "abc123"}
	data, err := in.Encode()
	require.NoError(t, err)

	var out Entry
	require.NoError(t, out.Decode(data))
	assert.Equal(t, *in, out)
}

func TestKeys(t *testing.T) {
	key := MakeKey("/home/u/file.txt")
	assert.Equal(t, "/home/u/file.txt", ParseKey(key))
	assert.True(t, len(key) > len(KeyPrefix()))
	assert.Equal(t, "raw", ParseKey([]byte("raw")))
}

func TestStore_GetMissing(t *testing.T) {
	s, err := OpenMemoryStore()
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get("/nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDigestCache_LookupStore(t *testing.T) {
	c := openTestCache(t)
	mtime := time.Unix(1700000000, 5)

	_, ok := c.Lookup("/a", 10, mtime)
	assert.False(t, ok)

	require.NoError(t, c.Store("/a", 10, mtime, "d1"))

	got, ok := c.Lookup("/a", 10, mtime)
	require.True(t, ok)
	assert.Equal(t, "d1", got)

	_, ok = c.Lookup("/a", 11, mtime)
	assert.False(t, ok, "size change invalidates")

	_, ok = c.Lookup("/a", 10, mtime.Add(time.Nanosecond))
	assert.False(t, ok, "mtime change invalidates")
}

func TestDigestCache_ForgetAndRename(t *testing.T) {
	c := openTestCache(t)
	mtime := time.Now()

	require.NoError(t, c.Store("/in/a", 1, mtime, "da"))
	require.NoError(t, c.Store("/in/b", 1, mtime, "db"))

	require.NoError(t, c.Forget("/in/a"))
	_, ok := c.Lookup("/in/a", 1, mtime)
	assert.False(t, ok)

	require.NoError(t, c.Rename("/in/b", "/out/Documents/b"))
	_, ok = c.Lookup("/in/b", 1, mtime)
	assert.False(t, ok)
	got, ok := c.Lookup("/out/Documents/b", 1, mtime)
	require.True(t, ok)
	assert.Equal(t, "db", got)

	assert.NoError(t, c.Rename("/never/stored", "/x"))
}

func TestDigestCache_Clear(t *testing.T) {
	c := openTestCache(t)
	mtime := time.Now()

	for _, p := range []string{"/one/a", "/one/b", "/two/c"} {
		require.NoError(t, c.Store(p, 1, mtime, "d"))
	}
	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	removed, err := c.Clear("/one/")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok := c.Lookup("/two/c", 1, mtime)
	assert.True(t, ok)

	removed, err = c.Clear("")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err = c.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDigestCache_PersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Unix(1700000000, 0)

	c, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, c.Store("/p", 3, mtime, "persisted"))
	require.NoError(t, c.Close())

	c, err = Open(dir)
	require.NoError(t, err)
	defer c.Close()
	got, ok := c.Lookup("/p", 3, mtime)
	require.True(t, ok)
	assert.Equal(t, "persisted", got)
}

func TestOpenInMemory(t *testing.T) {
	c, err := OpenInMemory()
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Store("/m", 1, time.Unix(1, 0), "mem"))
	got, ok := c.Lookup("/m", 1, time.Unix(1, 0))
	require.True(t, ok)
	assert.Equal(t, "mem", got)
}
