package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/shelve/pkg/shelve/config"
	"github.com/jamesainslie/shelve/pkg/shelve/types"
)

func parseSortFlags(t *testing.T, args ...string) (*cobra.Command, *sortOptions) {
	t.Helper()
	o := &sortOptions{}
	cmd := &cobra.Command{Use: "test"}
	addSortFlags(cmd, o)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, o
}

func baseConfig() *config.Config {
	return &config.Config{
		PreserveStructure: true,
		Exclude:           []string{"*.tmp"},
		MinSize:           "1K",
		Extensions:        []string{"jpg"},
		DuplicateScope:    "session",
	}
}

func TestBuildSortPlan(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, p *sortPlan)
	}{
		{
			name: "config values without flags",
			check: func(t *testing.T, p *sortPlan) {
				assert.True(t, p.Request.PreserveStructure)
				assert.Equal(t, []string{"*.tmp"}, p.Request.Exclude)
				assert.Equal(t, types.KiB, p.Request.MinSize)
				assert.Zero(t, p.Request.MaxSize)
				assert.Equal(t, []string{".jpg"}, p.Request.Extensions)
				assert.Equal(t, "session", p.Scope)
				assert.False(t, p.Sniff)
			},
		},
		{
			name: "flags override config",
			args: []string{"--flat", "--min-size", "2MB", "--max-size", "1G", "--ext", "PNG, gif", "--sniff", "-D", "--duplicate-scope", "destination"},
			check: func(t *testing.T, p *sortPlan) {
				assert.False(t, p.Request.PreserveStructure)
				assert.Equal(t, 2*types.MiB, p.Request.MinSize)
				assert.Equal(t, int64(1<<30), p.Request.MaxSize)
				assert.Equal(t, []string{".png", ".gif"}, p.Request.Extensions)
				assert.True(t, p.Request.Duplicates)
				assert.True(t, p.Sniff)
				assert.Equal(t, "destination", p.Scope)
			},
		},
		{
			name: "excludes are appended",
			args: []string{"-e", "node_modules", "-e", "*.bak"},
			check: func(t *testing.T, p *sortPlan) {
				assert.Equal(t, []string{"*.tmp", "node_modules", "*.bak"}, p.Request.Exclude)
			},
		},
		{
			name: "empty min-size flag clears config bound",
			args: []string{"--min-size", ""},
			check: func(t *testing.T, p *sortPlan) {
				assert.Zero(t, p.Request.MinSize)
			},
		},
		{
			name: "dry run and destination",
			args: []string{"-d", "-o", "/tmp/sorted"},
			check: func(t *testing.T, p *sortPlan) {
				assert.True(t, p.Request.DryRun)
				assert.Equal(t, "/tmp/sorted", p.Request.DestRoot)
				assert.Equal(t, "/data/in", p.Request.ScanRoot)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, o := parseSortFlags(t, tt.args...)
			plan, err := buildSortPlan(cmd.Flags(), o, baseConfig(), "/data/in")
			require.NoError(t, err)
			tt.check(t, plan)
		})
	}
}

func TestBuildSortPlan_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid min size", []string{"--min-size", "big"}},
		{"negative max size", []string{"--max-size", "-5"}},
		{"zero max size", []string{"--max-size", "0"}},
		{"min above max", []string{"--min-size", "2M", "--max-size", "1M"}},
		{"unknown scope", []string{"--duplicate-scope", "everywhere"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, o := parseSortFlags(t, tt.args...)
			_, err := buildSortPlan(cmd.Flags(), o, baseConfig(), "/data/in")
			assert.Error(t, err)
		})
	}
}

func TestParseCommaSeparated(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ,,c ", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		got := parseCommaSeparated(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
