package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/shelve/pkg/shelve/cache"
	"github.com/jamesainslie/shelve/pkg/shelve/config"
	"github.com/jamesainslie/shelve/pkg/shelve/engine"
	"github.com/jamesainslie/shelve/pkg/shelve/logging"
	"github.com/jamesainslie/shelve/pkg/shelve/types"
)

// appConfig is loaded once by initializeLogging before any command runs.
var appConfig *config.Config

// defaultRotationMaxSize is used when logging.rotation.max_size is empty or
// unparseable.
const defaultRotationMaxSize = 10 * types.MiB

// initializeLogging is the root PersistentPreRunE hook. It loads the
// configuration, creates the state directory and starts file logging.
func initializeLogging(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	appConfig = cfg

	if err := config.EnsureStateDir(); err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if verbose {
		logCfg.ConsoleLevel = "debug"
	}
	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}

	logging.Get("cli").Debug("configuration loaded", "file", cfg.File)
	return nil
}

func closeLogging() {
	_ = logging.Close()
}

// parseRotationConfig converts the config's size string into bytes.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	maxSize := int64(defaultRotationMaxSize)
	if rc.MaxSize != "" {
		if n, err := types.ParseSize(rc.MaxSize); err == nil && n > 0 {
			maxSize = n
		}
	}
	return logging.RotationConfig{
		MaxSize:    maxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
}

// loadedConfig returns the configuration read by initializeLogging, or the
// defaults when a command runs without the hook (tests).
func loadedConfig() (*config.Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	appConfig = cfg
	return cfg, nil
}

// newEngine builds an engine from the configuration. The returned close
// function releases the digest cache, if one was opened.
func newEngine(cfg *config.Config, sniff bool, scope string) (*engine.Engine, func(), error) {
	table, err := cfg.CategoryTable()
	if err != nil {
		return nil, nil, err
	}

	ecfg := engine.Config{
		Categories:     table,
		Sniff:          sniff,
		DuplicateScope: engine.DuplicateScope(scope),
		HistoryFile:    cfg.HistoryFile,
	}

	closeFn := func() {}
	if cfg.Cache.Enabled {
		dc, err := cache.Open(cfg.CachePath())
		if err != nil {
			logging.Get("cli").Warn("digest cache unavailable", "path", cfg.CachePath(), "error", err)
			printVerbose("digest cache unavailable: %v", err)
		} else {
			ecfg.Cache = dc
			closeFn = func() { _ = dc.Close() }
		}
	}

	e, err := engine.New(ecfg)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return e, closeFn, nil
}
