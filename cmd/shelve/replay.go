package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/shelve/pkg/shelve/config"
	"github.com/jamesainslie/shelve/pkg/shelve/engine"
	"github.com/jamesainslie/shelve/pkg/shelve/logging"
	"github.com/jamesainslie/shelve/pkg/shelve/output"
)

var undoCmd = &cobra.Command{
	Use:   "undo [dest]",
	Short: "Undo the last sort",
	Long: `Move the files of the most recent sort back to where they came from and
remove the category folders it created, when they are empty.

[dest] is the destination root of the sort (default: current directory).
A file whose original location is occupied is left in place and reported.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd, args, output.KindUndo)
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo [dest]",
	Short: "Redo the last undone sort",
	Long: `Repeat the moves of the most recently undone sort.

[dest] is the destination root of the sort (default: current directory).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(cmd, args, output.KindRedo)
	},
}

func init() {
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(redoCmd)
}

// destArg returns the destination root argument, defaulting to ".".
func destArg(args []string) (string, error) {
	if len(args) == 0 {
		return ".", nil
	}
	return config.ExpandPath(args[0])
}

func runReplay(cmd *cobra.Command, args []string, kind output.Kind) error {
	dest, err := destArg(args)
	if err != nil {
		return err
	}
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	eng, closeEngine, err := newEngine(cfg, cfg.Sniff, cfg.DuplicateScope)
	if err != nil {
		return err
	}
	defer closeEngine()

	ctx, stop := signalContext(cmd)
	defer stop()

	var res *engine.ReplayResult
	if kind == output.KindUndo {
		res, err = eng.Undo(ctx, dest)
	} else {
		res, err = eng.Redo(ctx, dest)
	}
	switch {
	case errors.Is(err, engine.ErrNothingToUndo), errors.Is(err, engine.ErrNothingToRedo):
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Nothing to %s in %s.\n", kind, dest)
		}
		return nil
	case err != nil:
		return err
	}

	logging.Get("cli").Info("replay finished", "kind", kind, "dest", res.DestRoot,
		"entry", res.EntryID, "replayed", res.Replayed, "errors", len(res.Errors))

	if err := writeReport(cmd.OutOrStdout(), output.FromReplay(kind, res)); err != nil {
		return err
	}
	if res.Interrupted {
		return fmt.Errorf("%s interrupted", kind)
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("%d files could not be restored", len(res.Errors))
	}
	return nil
}
