package filter

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	f, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if f.MinSize != 0 || f.MaxSize != 0 {
		t.Errorf("bounds = %d..%d, want 0..0", f.MinSize, f.MaxSize)
	}
	if f.IncludeHidden {
		t.Error("IncludeHidden should default to false")
	}
	if !f.Match("/a/b/file.bin", 0) {
		t.Error("default filter should match everything")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(WithExclude("[unterminated")); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("bad glob: error = %v, want ErrInvalidPattern", err)
	}
	if _, err := New(WithMinSize(100), WithMaxSize(10)); !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("bad bounds: error = %v, want ErrInvalidBounds", err)
	}
}

func TestWithSizes(t *testing.T) {
	f, err := New(WithMinSize(-5), WithMaxSize(-1))
	if err != nil {
		t.Fatal(err)
	}
	if f.MinSize != 0 || f.MaxSize != 0 {
		t.Errorf("negative bounds not clamped: %d..%d", f.MinSize, f.MaxSize)
	}
}

func TestAllowsSize(t *testing.T) {
	f, err := New(WithMinSize(10), WithMaxSize(20))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		size int64
		want bool
	}{
		{size: 9, want: false},
		{size: 10, want: true},
		{size: 20, want: true},
		{size: 21, want: false},
	}
	for _, tt := range tests {
		if got := f.AllowsSize(tt.size); got != tt.want {
			t.Errorf("AllowsSize(%d) = %v, want %v", tt.size, got, tt.want)
		}
	}
}

func TestWithExtensions(t *testing.T) {
	f, err := New(WithExtensions("JPG", ".png", "jpg", " "))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{".jpg", ".png"}
	if len(f.Extensions) != len(want) {
		t.Fatalf("Extensions = %v, want %v", f.Extensions, want)
	}
	for i := range want {
		if f.Extensions[i] != want[i] {
			t.Errorf("Extensions[%d] = %q, want %q", i, f.Extensions[i], want[i])
		}
	}

	if !f.Match("/x/Photo.JPG", 1) {
		t.Error("upper-case extension should match allow-list")
	}
	if f.Match("/x/notes.txt", 1) {
		t.Error(".txt should be rejected by allow-list")
	}
	if f.Match("/x/README", 1) {
		t.Error("extensionless file should be rejected by a non-empty allow-list")
	}
}

func TestExcluded(t *testing.T) {
	f, err := New(WithExclude("*.tmp", "/data/in/cache/**", "  "))
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Exclude) != 2 {
		t.Errorf("blank pattern kept: %v", f.Exclude)
	}

	tests := []struct {
		path string
		want bool
	}{
		{path: "/data/in/a.tmp", want: true},
		{path: "/data/in/deep/b.tmp", want: true},
		{path: "/data/in/cache/x/y.bin", want: true},
		{path: "/data/in/keep.txt", want: false},
	}
	for _, tt := range tests {
		if got := f.Excluded(filepath.FromSlash(tt.path)); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestHidden(t *testing.T) {
	tests := []struct {
		name    string
		rel     string
		include bool
		want    bool
	}{
		{name: "plain", rel: "a/b.txt", want: false},
		{name: "hidden file", rel: "a/.b.txt", want: true},
		{name: "hidden dir", rel: ".git/config", want: true},
		{name: "root", rel: ".", want: false},
		{name: "included", rel: ".git/config", include: true, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(WithHidden(tt.include))
			if err != nil {
				t.Fatal(err)
			}
			if got := f.Hidden(filepath.FromSlash(tt.rel)); got != tt.want {
				t.Errorf("Hidden(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}
