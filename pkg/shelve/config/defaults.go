// Package config loads shelve's configuration from a YAML file and SHELVE_
// environment variables.
package config

import (
	"time"

	"github.com/jamesainslie/shelve/pkg/shelve/history"
)

// Default configuration values.
const (
	DefaultPreserveStructure = true
	DefaultDuplicateScope    = "session"
	DefaultHistoryFile       = history.DefaultFile
	DefaultDebounce          = 2 * time.Second
	DefaultLogLevel          = "info"
	DefaultRotationMaxSize   = "10MB"
	DefaultRotationMaxAge    = 30
	DefaultRotationBackups   = 5

	// EnvPrefix prefixes every environment override, e.g. SHELVE_MIN_SIZE.
	EnvPrefix = "SHELVE"
)

// DefaultComponentLevels are the per-component log levels written by
// WriteDefault.
var DefaultComponentLevels = map[string]string{
	"engine":  "info",
	"scanner": "info",
	"watcher": "warn",
	"cache":   "warn",
}
