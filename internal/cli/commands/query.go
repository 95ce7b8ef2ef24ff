package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/partnerlens/partnerlens/internal/adapter"
)

// listTablesQuery works on both postgres and duckdb: each exposes
// information_schema and hides its own catalogs behind these schemas.
const listTablesQuery = `
SELECT table_name, table_type
FROM information_schema.tables
WHERE table_schema NOT IN ('information_schema', 'pg_catalog')
ORDER BY table_type, table_name`

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the analytics database",
		Long: `Execute SQL against the configured target database.

Useful for inspecting the source tables the reports run on, or for ad-hoc
analysis. Supports multiple output formats for scripting and integration.

When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  partnerlens query "SELECT count(*) FROM conversations"

  # List available tables
  partnerlens query tables

  # Show schema for a table
  partnerlens query schema company

  # Output as JSON
  partnerlens query "SELECT * FROM company LIMIT 5" --format json

  # Interactive mode
  partnerlens query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))

	return cmd
}

func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the target database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			return cmdCtx.WithDB(cmd.Context(), func(a adapter.Adapter) error {
				return listTables(cmd.Context(), cmd.OutOrStdout(), a, opts.Format)
			})
		},
	}
}

func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show schema for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			return cmdCtx.WithDB(cmd.Context(), func(a adapter.Adapter) error {
				return showSchema(cmd.Context(), cmd.OutOrStdout(), a, args[0], opts.Format)
			})
		},
	}
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx := NewCommandContext(cmd)

	var sqlQuery string
	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		// Read from stdin (piped input)
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, cmdCtx, opts)
	}

	return cmdCtx.WithDB(cmd.Context(), func(a adapter.Adapter) error {
		return executeAndRenderQuery(cmd.Context(), cmd.OutOrStdout(), a, sqlQuery, opts.Format)
	})
}

func executeAndRenderQuery(ctx context.Context, w io.Writer, a adapter.Adapter, query, format string) error {
	rows, err := a.Query(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows, format)
}

func listTables(ctx context.Context, w io.Writer, a adapter.Adapter, format string) error {
	rows, err := a.Query(ctx, listTablesQuery)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows, format)
}

func showSchema(ctx context.Context, w io.Writer, a adapter.Adapter, tableName, format string) error {
	meta, err := a.GetTableMetadata(ctx, tableName)
	if err != nil {
		return err
	}

	if format == "json" {
		return renderJSON(w, columnsAsMaps(meta.Columns))
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Nullable"})
	for _, col := range meta.Columns {
		nullable := "NO"
		if col.Nullable {
			nullable = "YES"
		}
		t.AppendRow(table.Row{col.Name, col.Type, nullable})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "%s.%s (%d rows)\n", meta.Schema, meta.Name, meta.RowCount)
	return nil
}

func columnsAsMaps(cols []adapter.Column) []map[string]any {
	out := make([]map[string]any, 0, len(cols))
	for _, col := range cols {
		out = append(out, map[string]any{
			"name":     col.Name,
			"type":     col.Type,
			"nullable": col.Nullable,
			"position": col.Position,
		})
	}
	return out
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
