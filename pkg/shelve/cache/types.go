package cache

import (
	"bytes"
	"encoding/gob"
	"strconv"
)

// Version is bumped when the entry encoding changes; entries written under
// another version are never read.
const Version = 1

// KeySeparator separates the version prefix from the file path.
const KeySeparator = '\x00'

// Entry is the cached digest of one file, valid while Size and Mtime match.
type Entry struct {
	Size   int64
	Mtime  int64 // UnixNano
	Digest string
}

// Encode serialises the entry with gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserialises gob data into the entry.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// KeyPrefix returns the prefix shared by every key of the current version.
func KeyPrefix() []byte {
	return []byte("v" + strconv.Itoa(Version) + string(KeySeparator))
}

// MakeKey builds the key for an absolute file path.
func MakeKey(path string) []byte {
	return append(KeyPrefix(), path...)
}

// ParseKey returns the file path stored in key.
func ParseKey(key []byte) string {
	idx := bytes.IndexByte(key, KeySeparator)
	if idx == -1 {
		return string(key)
	}
	return string(key[idx+1:])
}
