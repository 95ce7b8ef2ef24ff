package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/partnerlens/partnerlens/internal/adapter"
	"github.com/partnerlens/partnerlens/internal/chart"
	"github.com/partnerlens/partnerlens/internal/cli/output"
	"github.com/partnerlens/partnerlens/internal/report"
)

// CloseRateCmdOptions holds options for the closerate command.
type CloseRateCmdOptions struct {
	Year      int
	FromMonth int
	ToMonth   int
	Threshold int64
	ChartPath string
}

// NewCloseRateCommand creates the closerate report command.
func NewCloseRateCommand() *cobra.Command {
	opts := &CloseRateCmdOptions{}

	cmd := &cobra.Command{
		Use:   "closerate",
		Short: "Run the monthly close-rate report",
		Long: `Compute, per month, the share of recently closed companies whose
successful conversation volume that month reached the threshold.

"Recently closed" spans the preceding and the report month, so a company
closed late in a month is still counted against the following month's
activity.`,
		Example: `  # Default month range for the current year
  partnerlens closerate

  # Full year 2023 with a higher bar
  partnerlens closerate --year 2023 --from 1 --to 12 --threshold 2000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCloseRate(cmd, opts)
		},
	}

	defaults := report.DefaultCloseRateOptions(time.Now().Year())
	cmd.Flags().IntVar(&opts.Year, "year", defaults.Year, "Report year")
	cmd.Flags().IntVar(&opts.FromMonth, "from", defaults.FromMonth, "First month (1-12)")
	cmd.Flags().IntVar(&opts.ToMonth, "to", defaults.ToMonth, "Last month (1-12)")
	cmd.Flags().Int64Var(&opts.Threshold, "threshold", defaults.Threshold, "Monthly successful conversations that mark a company successful")
	cmd.Flags().StringVar(&opts.ChartPath, "chart", "", "Write an HTML chart to this path")

	return cmd
}

func runCloseRate(cmd *cobra.Command, opts *CloseRateCmdOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	reportOpts := report.CloseRateOptions{
		Year:      opts.Year,
		FromMonth: opts.FromMonth,
		ToMonth:   opts.ToMonth,
		Threshold: opts.Threshold,
	}
	params := fmt.Sprintf("year=%d months=%d..%d threshold=%d",
		opts.Year, opts.FromMonth, opts.ToMonth, opts.Threshold)

	return cmdCtx.RecordRun("closerate", params, func() (int64, error) {
		var results []report.MonthCloseRate
		err := cmdCtx.WithDB(cmd.Context(), func(a adapter.Adapter) error {
			var err error
			results, err = runCloseRateWithProgress(cmd, r, a, reportOpts)
			return err
		})
		if err != nil {
			return 0, err
		}

		if opts.ChartPath != "" {
			err := chart.WriteFile(opts.ChartPath, func(w io.Writer) error {
				return chart.WriteCloseRate(w, results)
			})
			if err != nil {
				return 0, err
			}
			r.Success(fmt.Sprintf("Chart written to %s", opts.ChartPath))
		}

		if err := renderCloseRate(r, results, reportOpts); err != nil {
			return 0, err
		}
		return int64(len(results)), nil
	})
}

// runCloseRateWithProgress drives a terminal progress tracker while the
// per-month queries run. Non-interactive modes skip the tracker entirely.
func runCloseRateWithProgress(cmd *cobra.Command, r *output.Renderer, a adapter.Adapter, opts report.CloseRateOptions) ([]report.MonthCloseRate, error) {
	if r.EffectiveMode() != output.ModeText {
		return report.CloseRate(cmd.Context(), a.DB(), opts)
	}

	pw := progress.NewWriter()
	pw.SetOutputWriter(cmd.ErrOrStderr())
	pw.SetUpdateFrequency(100 * time.Millisecond)
	go pw.Render()

	tracker := &progress.Tracker{
		Message: "Computing close rates",
		Total:   int64(opts.ToMonth - opts.FromMonth + 1),
	}
	pw.AppendTracker(tracker)

	results, err := report.CloseRateWithProgress(cmd.Context(), a.DB(), opts, func(report.MonthCloseRate) {
		tracker.Increment(1)
	})

	if err != nil {
		tracker.MarkAsErrored()
	} else {
		tracker.MarkAsDone()
	}
	pw.Stop()
	for pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
	return results, err
}

func renderCloseRate(r *output.Renderer, results []report.MonthCloseRate, opts report.CloseRateOptions) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(results)
	case output.ModeMarkdown:
		r.Printf("## Close Rate %d\n\n", opts.Year)
		r.Println("| Month | Closed | Active | Successful | Close Rate |")
		r.Println("| --- | --- | --- | --- | --- |")
		for _, mc := range results {
			r.Printf("| %s | %d | %d | %d | %.1f%% |\n",
				monthName(mc.Month), mc.Closed, mc.Active, mc.Successful, mc.Percentage)
		}
		return nil
	default:
		styles := r.Styles()
		r.Println(styles.Header1.Render(fmt.Sprintf("Close Rate %d", opts.Year)))
		r.Println("")

		t := table.NewWriter()
		t.SetOutputMirror(r.Out())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Month", "Closed", "Active", "Successful", "Close Rate"})
		for _, mc := range results {
			t.AppendRow(table.Row{
				monthName(mc.Month), mc.Closed, mc.Active, mc.Successful,
				fmt.Sprintf("%.1f%%", mc.Percentage),
			})
		}
		t.Render()
		return nil
	}
}
