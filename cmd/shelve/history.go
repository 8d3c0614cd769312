package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/shelve/pkg/shelve/engine"
	"github.com/jamesainslie/shelve/pkg/shelve/output"
	"github.com/jamesainslie/shelve/pkg/shelve/scanner"
)

var historyCmd = &cobra.Command{
	Use:   "history [dest]",
	Short: "View sort history",
	Long: `List the sorts recorded in a destination root, newest first.

Applied entries can be undone; undone entries can be redone until the next
sort discards them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	dest, err := destArg(args)
	if err != nil {
		return err
	}
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	eng, err := engine.New(engine.Config{HistoryFile: cfg.HistoryFile})
	if err != nil {
		return err
	}

	log, err := eng.History(dest)
	if err != nil {
		return err
	}
	if canon, err := scanner.Canonical(dest); err == nil {
		dest = canon
	}
	return writeReport(cmd.OutOrStdout(), output.FromHistory(dest, log, time.Now()))
}
