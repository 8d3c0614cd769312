package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/shelve/pkg/shelve/filter"
	"github.com/jamesainslie/shelve/pkg/shelve/logging"
	"github.com/jamesainslie/shelve/pkg/shelve/output"
	"github.com/jamesainslie/shelve/pkg/shelve/watcher"
)

var (
	watchOpts     = &sortOptions{}
	watchDebounce time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch <dir>",
		Short: "Sort new files as they arrive",
		Long: `Watch sorts <dir> once, then keeps watching it and sorts again whenever
new files have settled for the debounce period. Stop with Ctrl-C.

Every run is recorded in the history like a normal sort.`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}
)

func init() {
	addSortFlags(watchCmd, watchOpts)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "quiet period before sorting (default from config, 2s)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	plan, err := buildSortPlan(cmd.Flags(), watchOpts, cfg, args[0])
	if err != nil {
		return err
	}
	eng, closeEngine, err := newEngine(cfg, plan.Sniff, plan.Scope)
	if err != nil {
		return err
	}
	defer closeEngine()

	f, err := filter.New(
		filter.WithExclude(plan.Request.Exclude...),
		filter.WithHidden(plan.Request.IncludeHidden),
	)
	if err != nil {
		return err
	}

	debounce := cfg.Watch.Debounce
	if cmd.Flags().Changed("debounce") {
		debounce = watchDebounce
	}

	w, err := watcher.New(watcher.Options{
		Root:       plan.Request.ScanRoot,
		DestRoot:   plan.Request.DestRoot,
		Categories: eng.Categories(),
		Filter:     f,
		Reserved:   eng.Reserved(),
		Debounce:   debounce,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := w.Watch(); err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	logger := logging.Get("cli")
	sortOnce := func(ctx context.Context) error {
		sum, err := eng.Sort(ctx, plan.Request)
		if err != nil {
			return err
		}
		logger.Info("watch sort finished", "root", sum.ScanRoot, "moved", sum.Moved, "errors", len(sum.Errors))
		if sum.Moved == 0 && len(sum.Errors) == 0 {
			return nil
		}
		return writeReport(cmd.OutOrStdout(), output.FromSummary(sum))
	}

	if err := sortOnce(ctx); err != nil {
		return err
	}
	printInfo("Watching %s (Ctrl-C to stop)", w.Root())
	return w.Run(ctx, sortOnce)
}
