package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/jamesainslie/shelve/pkg/shelve/category"
	"github.com/jamesainslie/shelve/pkg/shelve/types"
)

// RotationConfig configures log file rotation. MaxSize is a size string
// such as "10MB".
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Daily      bool   `mapstructure:"daily" yaml:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" yaml:"level"`
	Path       string            `mapstructure:"path" yaml:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation" yaml:"rotation"`
	Components map[string]string `mapstructure:"components" yaml:"components"`
}

// CacheConfig configures the persistent digest cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is the quiet period after the last event before a sort runs.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// Config is the application configuration.
type Config struct {
	PreserveStructure bool     `mapstructure:"preserve_structure" yaml:"preserve_structure"`
	IncludeHidden     bool     `mapstructure:"include_hidden" yaml:"include_hidden"`
	Exclude           []string `mapstructure:"exclude" yaml:"exclude"`
	MinSize           string   `mapstructure:"min_size" yaml:"min_size"`
	MaxSize           string   `mapstructure:"max_size" yaml:"max_size"`
	Extensions        []string `mapstructure:"extensions" yaml:"extensions"`
	Duplicates        bool     `mapstructure:"duplicates" yaml:"duplicates"`
	DuplicateScope    string   `mapstructure:"duplicate_scope" yaml:"duplicate_scope"`
	Sniff             bool     `mapstructure:"sniff" yaml:"sniff"`
	HistoryFile       string   `mapstructure:"history_file" yaml:"history_file"`

	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Categories replaces the built-in table when non-empty. Order matters:
	// the first category listing an extension wins.
	Categories []category.Category `mapstructure:"categories" yaml:"categories"`

	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch"`

	// File is the config file that was read. Empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

// Load reads configuration. When file is empty the first config.yaml found
// in these directories is used, and a missing file is not an error:
//   - $XDG_CONFIG_HOME/shelve
//   - $HOME/.config/shelve
//
// Environment variables prefixed with SHELVE_ override file values
// (SHELVE_MIN_SIZE, SHELVE_CACHE_ENABLED, ...).
func Load(file string) (*Config, error) {
	v := viper.New()

	if file != "" {
		path, err := ExpandPath(file)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "shelve"))
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(homeDir, ".config", "shelve"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	var err error
	if cfg.Cache.Path, err = ExpandPath(cfg.Cache.Path); err != nil {
		return nil, err
	}
	if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("preserve_structure", DefaultPreserveStructure)
	v.SetDefault("include_hidden", false)
	v.SetDefault("exclude", []string{})
	v.SetDefault("min_size", "")
	v.SetDefault("max_size", "")
	v.SetDefault("extensions", []string{})
	v.SetDefault("duplicates", false)
	v.SetDefault("duplicate_scope", DefaultDuplicateScope)
	v.SetDefault("sniff", false)
	v.SetDefault("history_file", DefaultHistoryFile)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", "") // empty means CacheDir()/digests
	v.SetDefault("categories", []category.Category{})

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "") // empty means DefaultLogPath()
	v.SetDefault("logging.rotation.max_size", DefaultRotationMaxSize)
	v.SetDefault("logging.rotation.max_age", DefaultRotationMaxAge)
	v.SetDefault("logging.rotation.max_backups", DefaultRotationBackups)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{})

	v.SetDefault("watch.debounce", DefaultDebounce)
}

// CategoryTable builds the classification table. An empty category list
// yields the built-in table.
func (c *Config) CategoryTable() (*category.Table, error) {
	if len(c.Categories) == 0 {
		return category.DefaultTable(), nil
	}
	return category.NewTable(c.Categories)
}

// SizeBounds parses MinSize and MaxSize. Empty strings mean no bound; a
// MaxSize of zero is an error.
func (c *Config) SizeBounds() (minSize, maxSize int64, err error) {
	if minSize, err = types.ParseOptionalSize(c.MinSize); err != nil {
		return 0, 0, fmt.Errorf("min_size: %w", err)
	}
	if maxSize, err = types.ParseUpperBound(c.MaxSize); err != nil {
		return 0, 0, fmt.Errorf("max_size: %w", err)
	}
	return minSize, maxSize, nil
}

// CachePath returns the digest cache directory.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(CacheDir(), "digests")
}

// Validate checks values that Load cannot check by type alone.
func (c *Config) Validate() error {
	if _, _, err := c.SizeBounds(); err != nil {
		return err
	}
	if _, err := c.CategoryTable(); err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	switch c.DuplicateScope {
	case "", "session", "destination":
	default:
		return fmt.Errorf("duplicate_scope: unknown scope %q", c.DuplicateScope)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce: must not be negative")
	}
	if strings.ContainsRune(c.HistoryFile, filepath.Separator) {
		return fmt.Errorf("history_file: must be a file name, got %q", c.HistoryFile)
	}
	return nil
}

// ConfigDir returns the configuration directory.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "shelve"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "shelve"), nil
}

// DefaultFile returns the path WriteDefault writes to.
func DefaultFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// WriteDefault writes a commented default config file unless one exists.
// It returns the path and whether a file was written.
func WriteDefault() (string, bool, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", false, err
	}
	path, err := DefaultFile()
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigFile()), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}
	return path, true, nil
}

func defaultConfigFile() string {
	var components strings.Builder
	for _, name := range []string{"engine", "scanner", "watcher", "cache"} {
		fmt.Fprintf(&components, "    %s: %s\n", name, DefaultComponentLevels[name])
	}

	return fmt.Sprintf(`# shelve configuration

# Keep each file's directory (relative to the scanned root) below its
# category folder. Set to false to put every file directly in its category.
preserve_structure: %t

# Include dotfiles and files inside dot-directories.
include_hidden: false

# Glob patterns; a file is skipped when its path or name matches.
exclude: []

# Size bounds such as 10K, 5MB, 1.5GiB. Empty means unbounded.
min_size: ""
max_size: ""

# Only sort these extensions. Empty means all.
extensions: []

# Route files with identical content into Duplicates/<category>.
duplicates: false
# session: compare the files of one run; destination: also compare against
# files already sorted.
duplicate_scope: %s

# Guess a category from file content when a name has no extension.
sniff: false

# Undo/redo log kept in each destination root.
history_file: %s

# Remember file digests between runs.
cache:
  enabled: false
  # Empty means $XDG_CACHE_HOME/shelve/digests
  path: ""

# Custom categories replace the built-in table. Example:
#   categories:
#     - name: Images
#       extensions: [.jpg, .png]
#     - name: Notes
#       extensions: [.md, .txt]
categories: []

logging:
  # debug, info, warn, error
  level: %s
  # Empty means $XDG_STATE_HOME/shelve/shelve.log
  path: ""
  rotation:
    max_size: %s
    max_age: %d       # days
    max_backups: %d
    daily: true
  components:
%s
watch:
  # Quiet period before a watched directory is sorted.
  debounce: %s
`, DefaultPreserveStructure, DefaultDuplicateScope, DefaultHistoryFile, DefaultLogLevel,
		DefaultRotationMaxSize, DefaultRotationMaxAge, DefaultRotationBackups,
		components.String(), DefaultDebounce)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// StateDir returns $XDG_STATE_HOME/shelve, where logs are kept.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "shelve")
}

// CacheDir returns $XDG_CACHE_HOME/shelve.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "shelve")
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}
