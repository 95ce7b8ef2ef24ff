package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/partnerlens/partnerlens/internal/adapter"
	"github.com/partnerlens/partnerlens/internal/chart"
	"github.com/partnerlens/partnerlens/internal/cli/output"
	"github.com/partnerlens/partnerlens/internal/report"
)

// ActivationCmdOptions holds options for the activation command.
type ActivationCmdOptions struct {
	Year         int
	WindowDays   int
	WindowTotal  int
	SuccessDays  int
	SuccessTotal int
	ChartPath    string
}

// NewActivationCommand creates the activation report command.
func NewActivationCommand() *cobra.Command {
	opts := &ActivationCmdOptions{}

	cmd := &cobra.Command{
		Use:   "activation",
		Short: "Run the partner activation report",
		Long: `Analyze how partner-sourced companies activate and succeed.

A company activates on the first day its conversation volume over a rolling
window reaches the activation threshold. An activated company succeeds when
its cumulative successful conversations reach the success threshold within
the success window. The report lists both milestones and a weekly cumulative
success series for the chosen year.`,
		Example: `  # Current year with default thresholds
  partnerlens activation

  # Tighter window against 2023 data
  partnerlens activation --year 2023 --window-days 2 --window-total 500

  # Emit an HTML chart alongside the table
  partnerlens activation --chart activation.html`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runActivation(cmd, opts)
		},
	}

	defaults := report.DefaultActivationOptions(time.Now().Year())
	cmd.Flags().IntVar(&opts.Year, "year", defaults.Year, "Report year for the weekly series")
	cmd.Flags().IntVar(&opts.WindowDays, "window-days", defaults.WindowDays, "Rolling window length in days")
	cmd.Flags().IntVar(&opts.WindowTotal, "window-total", defaults.WindowTotal, "Conversations within the window that mark activation")
	cmd.Flags().IntVar(&opts.SuccessDays, "success-days", defaults.SuccessDays, "Days after activation a company has to succeed")
	cmd.Flags().IntVar(&opts.SuccessTotal, "success-total", defaults.SuccessTotal, "Cumulative successful conversations that mark success")
	cmd.Flags().StringVar(&opts.ChartPath, "chart", "", "Write an HTML chart to this path")

	return cmd
}

func runActivation(cmd *cobra.Command, opts *ActivationCmdOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	reportOpts := report.ActivationOptions{
		Year:         opts.Year,
		WindowDays:   opts.WindowDays,
		WindowTotal:  opts.WindowTotal,
		SuccessDays:  opts.SuccessDays,
		SuccessTotal: opts.SuccessTotal,
	}
	params := fmt.Sprintf("year=%d window=%dd/%d success=%dd/%d",
		opts.Year, opts.WindowDays, opts.WindowTotal, opts.SuccessDays, opts.SuccessTotal)

	return cmdCtx.RecordRun("activation", params, func() (int64, error) {
		var result *report.ActivationResult
		err := cmdCtx.WithDB(cmd.Context(), func(a adapter.Adapter) error {
			var err error
			result, err = report.Activation(cmd.Context(), a.DB(), reportOpts)
			return err
		})
		if err != nil {
			return 0, err
		}

		if opts.ChartPath != "" {
			err := chart.WriteFile(opts.ChartPath, func(w io.Writer) error {
				return chart.WriteActivation(w, result, opts.Year)
			})
			if err != nil {
				return 0, err
			}
			r.Success(fmt.Sprintf("Chart written to %s", opts.ChartPath))
		}

		if err := renderActivation(r, result, reportOpts); err != nil {
			return 0, err
		}
		return int64(len(result.Companies)), nil
	})
}

func renderActivation(r *output.Renderer, result *report.ActivationResult, opts report.ActivationOptions) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(result)
	case output.ModeMarkdown:
		return renderActivationMarkdown(r, result, opts)
	default:
		return renderActivationText(r, result, opts)
	}
}

func renderActivationText(r *output.Renderer, result *report.ActivationResult, opts report.ActivationOptions) error {
	styles := r.Styles()
	r.Println(styles.Header1.Render(fmt.Sprintf("Partner Activation %d", opts.Year)))
	r.Println("")

	activated := 0
	for _, c := range result.Companies {
		if c.Activated {
			activated++
		}
	}
	r.Printf("Partner-sourced companies: %d (activated: %d, succeeded: %d)\n\n",
		len(result.Companies), activated, len(result.Successes))

	if len(result.Successes) > 0 {
		r.Println(styles.Header2.Render("Companies reaching the success threshold"))
		t := table.NewWriter()
		t.SetOutputMirror(r.Out())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Company", "Activated", "Succeeded", "Conversations"})
		for _, s := range result.Successes {
			activation := activationDateFor(result.Companies, s.CompanyID)
			t.AppendRow(table.Row{s.CompanyName, activation, s.SuccessDate.Format("2006-01-02"), s.Total})
		}
		t.Render()
		r.Println("")
	}

	if len(result.Weekly) > 0 {
		r.Println(styles.Header2.Render("Cumulative successes by week"))
		t := table.NewWriter()
		t.SetOutputMirror(r.Out())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Week", "New", "Cumulative"})
		for _, w := range result.Weekly {
			t.AppendRow(table.Row{w.WeekStart.Format("2006-01-02"), w.Count, w.Cumulative})
		}
		t.Render()
	}
	return nil
}

func renderActivationMarkdown(r *output.Renderer, result *report.ActivationResult, opts report.ActivationOptions) error {
	r.Printf("## Partner Activation %d\n\n", opts.Year)

	r.Println("| Company | Activated | Succeeded | Conversations |")
	r.Println("| --- | --- | --- | --- |")
	for _, s := range result.Successes {
		activation := activationDateFor(result.Companies, s.CompanyID)
		r.Printf("| %s | %s | %s | %d |\n", s.CompanyName, activation, s.SuccessDate.Format("2006-01-02"), s.Total)
	}
	r.Println("")

	r.Println("| Week | New | Cumulative |")
	r.Println("| --- | --- | --- |")
	for _, w := range result.Weekly {
		r.Printf("| %s | %d | %d |\n", w.WeekStart.Format("2006-01-02"), w.Count, w.Cumulative)
	}
	return nil
}

func activationDateFor(companies []report.CompanyActivation, id int64) string {
	for _, c := range companies {
		if c.CompanyID == id && c.Activated {
			return c.ActivationDate.Format("2006-01-02")
		}
	}
	return ""
}
