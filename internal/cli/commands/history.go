package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/partnerlens/partnerlens/internal/cli/output"
	"github.com/partnerlens/partnerlens/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Report string
	Limit  int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent report runs",
		Long: `List recent report runs recorded in the local run-history database,
newest first.`,
		Example: `  # Last 20 runs
  partnerlens history

  # Only activation runs
  partnerlens history --report activation

  # Machine readable
  partnerlens history -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Report, "report", "", "Filter by report name")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "Maximum number of runs to show")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	store := state.NewSQLiteStore()
	if err := store.Open(cmdCtx.Cfg.StatePath); err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate run history: %w", err)
	}

	runs, err := store.ListRuns(opts.Report, opts.Limit)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(runs)
	case output.ModeMarkdown:
		if len(runs) == 0 {
			r.Println("No runs recorded.")
			return nil
		}
		r.Println("| Started | Report | Env | Params | Rows | Status | Duration |")
		r.Println("| --- | --- | --- | --- | --- | --- | --- |")
		for _, run := range runs {
			r.Printf("| %s | %s | %s | %s | %d | %s | %s |\n",
				run.StartedAt.Format(time.RFC3339), run.Report, run.Environment,
				run.Params, run.RowCount, run.Status, formatDuration(run))
		}
		return nil
	default:
		if len(runs) == 0 {
			r.Println("No runs recorded.")
			return nil
		}
		t := table.NewWriter()
		t.SetOutputMirror(r.Out())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Started", "Report", "Env", "Params", "Rows", "Status", "Duration"})
		for _, run := range runs {
			t.AppendRow(table.Row{
				run.StartedAt.Format("2006-01-02 15:04:05"), run.Report, run.Environment,
				run.Params, run.RowCount, string(run.Status), formatDuration(run),
			})
		}
		t.Render()
		return nil
	}
}

func formatDuration(run *state.ReportRun) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.Duration().Round(time.Millisecond).String()
}
