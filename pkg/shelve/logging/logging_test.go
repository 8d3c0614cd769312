package logging_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/shelve/pkg/shelve/logging"
)

// Tests in this file share the package's global state and do not run in parallel.

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logging.Level
		wantErr bool
	}{
		{in: "debug", want: logging.LevelDebug},
		{in: "INFO", want: logging.LevelInfo},
		{in: "", want: logging.LevelInfo},
		{in: "warning", want: logging.LevelWarn},
		{in: "warn", want: logging.LevelWarn},
		{in: "error", want: logging.LevelError},
		{in: "loud", want: logging.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, logging.ErrInvalidLevel) {
				t.Errorf("error %v is not ErrInvalidLevel", err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	if got := logging.LevelWarn.String(); got != "warn" {
		t.Errorf("LevelWarn.String() = %q", got)
	}
	if got := logging.Level(42).String(); got != "unknown" {
		t.Errorf("Level(42).String() = %q", got)
	}
}

func TestGetBeforeInitIsSilent(t *testing.T) {
	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	l := logging.Get("quiet")
	l.Info("nobody hears this")
	if l.Component() != "quiet" {
		t.Errorf("Component() = %q", l.Component())
	}
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shelve.log")

	if err := logging.Init(logging.Config{
		Level:      "info",
		Path:       path,
		Components: map[string]string{"chatty": "debug"},
	}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = logging.Close() })

	logging.Get("engine").Debug("hidden debug")
	logging.Get("engine").Info("sort started", "root", "/in")
	logging.Get("chatty").Debug("visible debug")
	logging.Get("engine").With("entry", "abc").Warn("partial")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	out := string(data)

	for _, want := range []string{"sort started", "root=/in", "visible debug", "entry=abc"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden debug") {
		t.Errorf("debug record leaked at info level:\n%s", out)
	}
}

func TestInitConsole(t *testing.T) {
	var console bytes.Buffer
	if err := logging.Init(logging.Config{
		Level:        "debug",
		Path:         filepath.Join(t.TempDir(), "c.log"),
		ConsoleLevel: "warn",
		Console:      &console,
	}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = logging.Close() })

	l := logging.Get("mover")
	l.Info("file only")
	l.Warn("both places")

	out := console.String()
	if !strings.Contains(out, "both places") {
		t.Errorf("console missing warn record: %q", out)
	}
	if strings.Contains(out, "file only") {
		t.Errorf("console got info record: %q", out)
	}
}

func TestInitRejectsBadLevels(t *testing.T) {
	dir := t.TempDir()
	cases := []logging.Config{
		{Level: "nope", Path: filepath.Join(dir, "a.log")},
		{Level: "info", Path: filepath.Join(dir, "b.log"), Components: map[string]string{"x": "nope"}},
		{Level: "info", Path: filepath.Join(dir, "c.log"), ConsoleLevel: "nope"},
	}
	for i, cfg := range cases {
		if err := logging.Init(cfg); !errors.Is(err, logging.ErrInvalidLevel) {
			t.Errorf("case %d: Init() error = %v, want ErrInvalidLevel", i, err)
		}
	}
	_ = logging.Close()
}

func TestLoggersRebuiltOnInit(t *testing.T) {
	_ = logging.Close()
	before := logging.Get("early")

	path := filepath.Join(t.TempDir(), "early.log")
	if err := logging.Init(logging.Config{Level: "info", Path: path}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = logging.Close() })

	after := logging.Get("early")
	if before == after {
		t.Fatal("expected Get to return a rebuilt logger after Init")
	}
	after.Info("now recorded")
	_ = logging.Close()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "now recorded") {
		t.Errorf("log missing record: %s", data)
	}
}

func TestDefaultLogPath(t *testing.T) {
	p := logging.DefaultLogPath()
	if filepath.Base(p) != "shelve.log" || filepath.Base(filepath.Dir(p)) != "shelve" {
		t.Errorf("DefaultLogPath() = %q", p)
	}
	if cfg := logging.DefaultConfig(); cfg.Path != p || cfg.Level != "info" {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
}
