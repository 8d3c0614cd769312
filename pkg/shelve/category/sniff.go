package category

import (
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// Ext returns the extension used for classification: the final suffix of
// the base name, lowercased. Dotfiles such as ".bashrc" have no extension.
func Ext(path string) string {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") && strings.Count(base, ".") == 1 {
		return ""
	}
	return strings.ToLower(filepath.Ext(base))
}

// Sniffer infers an extension from file content when the name has none.
type Sniffer struct {
	Enabled bool
}

// Ext returns the file's extension, falling back to a magic-byte match for
// extensionless files when the sniffer is enabled. Read errors and unknown
// content yield "".
func (s Sniffer) Ext(path string) string {
	if ext := Ext(path); ext != "" || !s.Enabled {
		return ext
	}

	kind, err := filetype.MatchFile(path)
	if err != nil || kind == filetype.Unknown || kind.Extension == "" {
		return ""
	}
	return NormalizeExt(kind.Extension)
}
