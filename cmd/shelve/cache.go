package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/shelve/pkg/shelve/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the digest cache",
	Long: `Commands for managing the digest cache.

When cache.enabled is set, shelve remembers the content digest of each file
it hashes, so duplicate detection does not reread unchanged files. Cache
data is stored in the XDG cache directory (typically ~/.cache/shelve/digests).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [prefix]",
	Short: "Clear cached digests",
	Long:  `Removes cached digests. With [prefix], only entries for paths under it are removed.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.CachePath())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(_ *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	dir := cfg.CachePath()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		printInfo("Cache is already empty.")
		return nil
	}

	if len(args) == 0 {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		printInfo("Cache cleared.")
		return nil
	}

	prefix, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	dc, err := cache.Open(dir)
	if err != nil {
		return err
	}
	defer func() { _ = dc.Close() }()

	n, err := dc.Clear(prefix)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	printInfo("Removed %s cached digests under %s.", humanize.Comma(int64(n)), prefix)
	return nil
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	dir := cfg.CachePath()
	out := cmd.OutOrStdout()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Fprintln(out, "Cache: empty (no cache directory)")
		fmt.Fprintf(out, "Cache location: %s\n", dir)
		return nil
	}

	var size int64
	err = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr // unreadable entries do not count
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to calculate cache size: %w", err)
	}

	dc, err := cache.Open(dir)
	if err != nil {
		return err
	}
	defer func() { _ = dc.Close() }()
	entries, err := dc.Len()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Cache location: %s\n", dir)
	fmt.Fprintf(out, "Cache size: %s\n", humanize.IBytes(uint64(size)))
	fmt.Fprintf(out, "Cached digests: %s\n", humanize.Comma(int64(entries)))
	fmt.Fprintf(out, "Enabled: %t\n", cfg.Cache.Enabled)
	return nil
}
