package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/shelve/pkg/shelve/engine"
	"github.com/jamesainslie/shelve/pkg/shelve/logging"
	"github.com/jamesainslie/shelve/pkg/shelve/output"
)

// errInterrupted is returned after a sort stopped by a signal. The files
// moved before the signal are recorded and can be undone.
var errInterrupted = errors.New("sort interrupted")

var (
	sortOpts = &sortOptions{}

	sortCmd = &cobra.Command{
		Use:   "sort <dir>",
		Short: "Sort a directory into category folders",
		Long: `Sort moves every file below <dir> into a category folder chosen by its
extension. Name collisions get a numeric suffix, never an overwrite.

Each sort that moves files is recorded in a history file in the destination
root and can be reverted with 'shelve undo'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSort(cmd, sortOpts, args[0])
		},
	}
)

func init() {
	addSortFlags(sortCmd, sortOpts)
	rootCmd.AddCommand(sortCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runSort(cmd *cobra.Command, o *sortOptions, dir string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	plan, err := buildSortPlan(cmd.Flags(), o, cfg, dir)
	if err != nil {
		return err
	}

	eng, closeEngine, err := newEngine(cfg, plan.Sniff, plan.Scope)
	if err != nil {
		return err
	}
	defer closeEngine()

	ctx, stop := signalContext(cmd)
	defer stop()

	bar := newProgress(!o.noProgress && !quiet && isTerminal(os.Stderr), "Sorting")
	plan.Request.Progress = bar.Update

	printVerbose("sorting %s (dry-run=%t, duplicates=%t)", plan.Request.ScanRoot, plan.Request.DryRun, plan.Request.Duplicates)
	sum, err := eng.Sort(ctx, plan.Request)
	bar.Finish()
	if err != nil {
		return err
	}

	logging.Get("cli").Info("sort finished",
		"root", sum.ScanRoot, "moved", sum.Moved, "duplicates", sum.Duplicates,
		"errors", len(sum.Errors), "dry_run", sum.DryRun)

	if err := writeReport(cmd.OutOrStdout(), output.FromSummary(sum)); err != nil {
		return err
	}
	return sortOutcome(sum)
}

// sortOutcome turns an interrupted or partially failed sort into an error.
// Files that could not be hashed were still sorted and do not count.
func sortOutcome(sum *engine.Summary) error {
	if sum.Interrupted {
		return errInterrupted
	}
	failed := 0
	for _, e := range sum.Errors {
		if e.Op != "hash" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be sorted", failed, sum.Total)
	}
	return nil
}
