package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	verbose      bool
	quiet        bool
	outputFormat string

	rootSort = &sortOptions{}

	rootCmd = &cobra.Command{
		Use:   "shelve [dir]",
		Short: "Sort files into category folders",
		Long: `Shelve sorts the files of a directory into category folders such as
Images, Documents and Audio, and keeps a history so every sort can be undone.

Running shelve with a directory is the same as 'shelve sort <dir>'.

Examples:
  shelve ~/Downloads               # Sort Downloads in place
  shelve -d ~/Downloads            # Preview without moving anything
  shelve -o ~/Sorted ~/Downloads   # Sort into another directory
  shelve -D ~/Downloads            # Route duplicate files to Duplicates/
  shelve undo ~/Downloads          # Undo the last sort
  shelve watch ~/Downloads         # Sort new files as they arrive`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: initializeLogging,
		SilenceUsage:      true,
		SilenceErrors:     true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runSort(cmd, rootSort, args[0])
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/shelve/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "", "output format (pretty, plain, table, csv, markdown, json, yaml, paths, template)")

	addSortFlags(rootCmd, rootSort)
}

// Execute runs the root command.
func Execute() error {
	defer closeLogging()
	return rootCmd.Execute()
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
