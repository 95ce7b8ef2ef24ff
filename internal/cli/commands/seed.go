package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/partnerlens/partnerlens/internal/adapter"
)

// SeedOptions holds options for the seed command.
type SeedOptions struct {
	Table string
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed <file.csv> [file.csv...]",
		Short: "Load CSV files into the target database",
		Long: `Load CSV files into the target database, one table per file.

The table name defaults to the file name without extension; --table
overrides it when loading a single file. Columns are created as text from
the CSV header. Handy for loading fixture exports into a local duckdb
target before running reports.`,
		Example: `  # One table per file, named after the files
  partnerlens seed data/company.csv data/conversations.csv

  # Explicit table name
  partnerlens seed --table conversations export_2023.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Table, "table", "t", "", "Table name (single file only)")

	return cmd
}

func runSeed(cmd *cobra.Command, args []string, opts *SeedOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	if opts.Table != "" && len(args) > 1 {
		return fmt.Errorf("--table only applies to a single file, got %d", len(args))
	}

	return cmdCtx.WithDB(cmd.Context(), func(a adapter.Adapter) error {
		for _, path := range args {
			tableName := opts.Table
			if tableName == "" {
				tableName = tableNameFromPath(path)
			}

			if err := a.LoadCSV(cmd.Context(), tableName, path); err != nil {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}
			r.Success(fmt.Sprintf("Loaded %s into %s", path, tableName))
		}
		return nil
	})
}

// tableNameFromPath derives a table name from a CSV file path.
func tableNameFromPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}
