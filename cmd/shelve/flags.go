package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jamesainslie/shelve/pkg/shelve/category"
	"github.com/jamesainslie/shelve/pkg/shelve/config"
	"github.com/jamesainslie/shelve/pkg/shelve/engine"
	"github.com/jamesainslie/shelve/pkg/shelve/types"
)

// sortOptions holds the sort flags of one command. Flags the user did not
// set fall back to the configuration.
type sortOptions struct {
	dest           string
	flat           bool
	dryRun         bool
	hidden         bool
	exclude        []string
	minSize        string
	maxSize        string
	ext            []string
	duplicates     bool
	duplicateScope string
	sniff          bool
	noProgress     bool
}

func addSortFlags(cmd *cobra.Command, o *sortOptions) {
	f := cmd.Flags()
	f.StringVarP(&o.dest, "dest", "o", "", "destination root for category folders (default: the sorted directory)")
	f.BoolVar(&o.flat, "flat", false, "put files directly in their category folder")
	f.BoolVarP(&o.dryRun, "dry-run", "d", false, "show what would be moved without moving anything")
	f.BoolVar(&o.hidden, "hidden", false, "include dotfiles and dot-directories")
	f.StringSliceVarP(&o.exclude, "exclude", "e", nil, "exclude glob patterns (can be specified multiple times)")
	f.StringVar(&o.minSize, "min-size", "", "skip files smaller than this (e.g., 10K, 5MB)")
	f.StringVar(&o.maxSize, "max-size", "", "skip files larger than this (e.g., 1G); must be positive, omit for no limit")
	f.StringSliceVar(&o.ext, "ext", nil, "only sort these extensions (comma-separated)")
	f.BoolVarP(&o.duplicates, "duplicates", "D", false, "route files with identical content to Duplicates/")
	f.StringVar(&o.duplicateScope, "duplicate-scope", "", "duplicate comparison scope: session or destination")
	f.BoolVar(&o.sniff, "sniff", false, "detect the type of files without an extension from their content")
	f.BoolVar(&o.noProgress, "no-progress", false, "disable the progress bar")
}

// sortPlan is a sort request plus the engine settings it needs.
type sortPlan struct {
	Request engine.Request
	Sniff   bool
	Scope   string
}

// buildSortPlan merges the flags set on fs over cfg.
func buildSortPlan(fs *pflag.FlagSet, o *sortOptions, cfg *config.Config, dir string) (*sortPlan, error) {
	scanRoot, err := config.ExpandPath(dir)
	if err != nil {
		return nil, err
	}
	destRoot, err := config.ExpandPath(o.dest)
	if err != nil {
		return nil, err
	}

	plan := &sortPlan{
		Request: engine.Request{
			ScanRoot:          scanRoot,
			DestRoot:          destRoot,
			PreserveStructure: cfg.PreserveStructure,
			DryRun:            o.dryRun,
			IncludeHidden:     cfg.IncludeHidden,
			Exclude:           append(append([]string{}, cfg.Exclude...), o.exclude...),
			Duplicates:        cfg.Duplicates,
			Extensions:        normalizeExtensions(cfg.Extensions),
		},
		Sniff: cfg.Sniff,
		Scope: cfg.DuplicateScope,
	}

	if fs.Changed("flat") {
		plan.Request.PreserveStructure = !o.flat
	}
	if fs.Changed("hidden") {
		plan.Request.IncludeHidden = o.hidden
	}
	if fs.Changed("ext") {
		plan.Request.Extensions = normalizeExtensions(o.ext)
	}
	if fs.Changed("duplicates") {
		plan.Request.Duplicates = o.duplicates
	}
	if fs.Changed("duplicate-scope") {
		plan.Scope = o.duplicateScope
	}
	if fs.Changed("sniff") {
		plan.Sniff = o.sniff
	}
	if _, err := engine.ParseDuplicateScope(plan.Scope); err != nil {
		return nil, err
	}

	minSize, maxSize := cfg.MinSize, cfg.MaxSize
	if fs.Changed("min-size") {
		minSize = o.minSize
	}
	if fs.Changed("max-size") {
		maxSize = o.maxSize
	}
	if plan.Request.MinSize, err = types.ParseOptionalSize(minSize); err != nil {
		return nil, fmt.Errorf("invalid min-size %q: %w", minSize, err)
	}
	if plan.Request.MaxSize, err = types.ParseUpperBound(maxSize); err != nil {
		return nil, fmt.Errorf("invalid max-size %q: %w", maxSize, err)
	}
	if plan.Request.MaxSize > 0 && plan.Request.MinSize > plan.Request.MaxSize {
		return nil, fmt.Errorf("min-size %s is larger than max-size %s", minSize, maxSize)
	}

	return plan, nil
}

// normalizeExtensions splits comma lists and normalizes each extension.
func normalizeExtensions(exts []string) []string {
	var out []string
	for _, e := range exts {
		for _, p := range parseCommaSeparated(e) {
			out = append(out, category.NormalizeExt(p))
		}
	}
	return out
}

// parseCommaSeparated splits a comma-separated string and trims whitespace.
func parseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
