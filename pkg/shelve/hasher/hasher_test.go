package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/shelve/pkg/shelve/types"
)

func writeFile(t *testing.T, dir, name, content string) types.Candidate {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)
	return types.Candidate{Path: path, Size: info.Size(), ModTime: info.ModTime()}
}

func TestDigest(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	c := writeFile(t, dir, "a.txt", "hello")
	got, err := Digest(c.Path)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("hello"))
	assert.Equal(t, hex.EncodeToString(sum[:]), got)
}

func TestDigest_LargerThanChunk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	content := strings.Repeat("x", ChunkSize*2+17)
	c := writeFile(t, dir, "big.bin", content)

	got, err := Digest(c.Path)
	require.NoError(t, err)
	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), got)
}

func TestDigest_Missing(t *testing.T) {
	t.Parallel()
	_, err := Digest(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestGroupDuplicates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	// sizes {10, 10, 10, 20}: two identical tens, one distinct ten, one twenty
	a := writeFile(t, dir, "a.txt", "0123456789")
	b := writeFile(t, dir, "b.txt", "abcdefghij")
	c := writeFile(t, dir, "c.txt", "0123456789")
	d := writeFile(t, dir, "d.txt", "01234567890123456789")

	h := New(nil)
	res := h.GroupDuplicates([]types.Candidate{a, b, c, d})

	require.Len(t, res.Groups, 1)
	assert.Equal(t, []types.Candidate{a, c}, res.Groups[0].Members)
	assert.Empty(t, res.Errors)

	dups := res.Duplicates()
	assert.Contains(t, dups, a.Path)
	assert.Contains(t, dups, c.Path)
	assert.NotContains(t, dups, b.Path)
	assert.NotContains(t, dups, d.Path)

	// only the three size-10 files were hashed
	assert.Equal(t, 3, h.Computed())
}

func TestGroupDuplicates_UniqueSizesNotHashed(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	a := writeFile(t, dir, "a", "1")
	b := writeFile(t, dir, "b", "22")
	c := writeFile(t, dir, "c", "333")

	h := New(nil)
	res := h.GroupDuplicates([]types.Candidate{a, b, c})
	assert.Empty(t, res.Groups)
	assert.Zero(t, h.Computed())
}

func TestGroupDuplicates_UnreadableTreatedAsUnique(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	a := writeFile(t, dir, "a", "same")
	b := writeFile(t, dir, "b", "same")
	gone := types.Candidate{Path: filepath.Join(dir, "gone"), Size: a.Size}

	res := New(nil).GroupDuplicates([]types.Candidate{a, gone, b})
	require.Len(t, res.Groups, 1)
	assert.Equal(t, []types.Candidate{a, b}, res.Groups[0].Members)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, gone.Path, res.Errors[0].Path)
	assert.Equal(t, "hash", res.Errors[0].Op)
}

func TestGroupDuplicates_GroupOrder(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	x1 := writeFile(t, dir, "x1", "xxxx")
	y1 := writeFile(t, dir, "y1", "yy")
	x2 := writeFile(t, dir, "x2", "xxxx")
	y2 := writeFile(t, dir, "y2", "yy")

	res := New(nil).GroupDuplicates([]types.Candidate{y1, x1, y2, x2})
	require.Len(t, res.Groups, 2)
	assert.Equal(t, y1.Path, res.Groups[0].Members[0].Path)
	assert.Equal(t, x1.Path, res.Groups[1].Members[0].Path)
}

func TestGroupWithReferences(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	ref := writeFile(t, dir, "sorted.txt", "content")
	cand := writeFile(t, dir, "new.txt", "content")
	other := writeFile(t, dir, "other.txt", "differs")
	lonelyRef := writeFile(t, dir, "lonely.txt", "unrelated-size")

	h := New(nil)
	res := h.GroupWithReferences([]types.Candidate{cand, other}, []types.Candidate{ref, lonelyRef})

	require.Len(t, res.Groups, 1)
	assert.Equal(t, []types.Candidate{cand}, res.Groups[0].Members)
	assert.Equal(t, []types.Candidate{ref}, res.Groups[0].References)
	assert.Equal(t, 2, res.Groups[0].Size())
}

func TestGroupWithReferences_ReferencesOnly(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	r1 := writeFile(t, dir, "r1", "same")
	r2 := writeFile(t, dir, "r2", "same")

	h := New(nil)
	res := h.GroupWithReferences(nil, []types.Candidate{r1, r2})
	assert.Empty(t, res.Groups)
	assert.Zero(t, h.Computed(), "buckets without candidates are never hashed")
}

type memCache struct {
	entries map[string]string
	stores  int
}

func (m *memCache) Lookup(path string, size int64, modTime time.Time) (string, bool) {
	d, ok := m.entries[path]
	return d, ok
}

func (m *memCache) Store(path string, size int64, modTime time.Time, digest string) error {
	m.entries[path] = digest
	m.stores++
	return nil
}

func TestHasher_UsesCache(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	a := writeFile(t, dir, "a", "dup")
	b := writeFile(t, dir, "b", "dup")

	cache := &memCache{entries: map[string]string{}}
	h := New(cache)
	require.Len(t, h.GroupDuplicates([]types.Candidate{a, b}).Groups, 1)
	assert.Equal(t, 2, h.Computed())
	assert.Equal(t, 2, cache.stores)

	h2 := New(cache)
	require.Len(t, h2.GroupDuplicates([]types.Candidate{a, b}).Groups, 1)
	assert.Zero(t, h2.Computed())
}
