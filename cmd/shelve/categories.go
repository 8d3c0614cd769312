package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/shelve/pkg/shelve/output"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories and their extensions",
	Long: `List the category folders files are sorted into. Custom categories from
the config file replace the built-in table.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		table, err := cfg.CategoryTable()
		if err != nil {
			return err
		}
		return writeReport(cmd.OutOrStdout(), output.FromCategories(table))
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
