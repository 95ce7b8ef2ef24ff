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

// CohortCmdOptions holds options for the cohort command.
type CohortCmdOptions struct {
	Year      int
	FromMonth int
	ToMonth   int
	ChartPath string
}

// NewCohortCommand creates the cohort report command.
func NewCohortCommand() *cobra.Command {
	opts := &CohortCmdOptions{}

	cmd := &cobra.Command{
		Use:   "cohort",
		Short: "Run the revenue cohort report",
		Long: `Build a revenue matrix of close-month cohorts against invoice months.

Each row is the set of companies closed in one month; each column is the
invoice revenue those companies generated in a later month. Cells before a
cohort's close month are blank.`,
		Example: `  # Default month range for the current year
  partnerlens cohort

  # January through June 2023 as JSON
  partnerlens cohort --year 2023 --from 1 --to 6 -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCohort(cmd, opts)
		},
	}

	defaults := report.DefaultCohortOptions(time.Now().Year())
	cmd.Flags().IntVar(&opts.Year, "year", defaults.Year, "Report year")
	cmd.Flags().IntVar(&opts.FromMonth, "from", defaults.FromMonth, "First cohort month (1-12)")
	cmd.Flags().IntVar(&opts.ToMonth, "to", defaults.ToMonth, "Last cohort month (1-12)")
	cmd.Flags().StringVar(&opts.ChartPath, "chart", "", "Write an HTML heatmap to this path")

	return cmd
}

func runCohort(cmd *cobra.Command, opts *CohortCmdOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	reportOpts := report.CohortOptions{
		Year:      opts.Year,
		FromMonth: opts.FromMonth,
		ToMonth:   opts.ToMonth,
	}
	params := fmt.Sprintf("year=%d months=%d..%d", opts.Year, opts.FromMonth, opts.ToMonth)

	return cmdCtx.RecordRun("cohort", params, func() (int64, error) {
		var matrix *report.CohortMatrix
		err := cmdCtx.WithDB(cmd.Context(), func(a adapter.Adapter) error {
			var err error
			matrix, err = report.Cohort(cmd.Context(), a.DB(), reportOpts)
			return err
		})
		if err != nil {
			return 0, err
		}

		if opts.ChartPath != "" {
			err := chart.WriteFile(opts.ChartPath, func(w io.Writer) error {
				return chart.WriteCohort(w, matrix)
			})
			if err != nil {
				return 0, err
			}
			r.Success(fmt.Sprintf("Chart written to %s", opts.ChartPath))
		}

		if err := renderCohort(r, matrix, reportOpts); err != nil {
			return 0, err
		}
		return int64(len(matrix.Cohorts)), nil
	})
}

func renderCohort(r *output.Renderer, matrix *report.CohortMatrix, opts report.CohortOptions) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(matrix)
	case output.ModeMarkdown:
		r.Printf("## Revenue Cohorts %d\n\n", opts.Year)
		header := "| Cohort |"
		sep := "| --- |"
		for _, m := range matrix.Months {
			header += fmt.Sprintf(" %s |", monthName(m))
			sep += " --- |"
		}
		r.Println(header)
		r.Println(sep)
		for _, cohort := range matrix.Cohorts {
			line := fmt.Sprintf("| %s |", cohort)
			for _, m := range matrix.Months {
				line += fmt.Sprintf(" %s |", cohortCell(matrix, cohort, m))
			}
			r.Println(line)
		}
		return nil
	default:
		styles := r.Styles()
		r.Println(styles.Header1.Render(fmt.Sprintf("Revenue Cohorts %d", opts.Year)))
		r.Println("")

		t := table.NewWriter()
		t.SetOutputMirror(r.Out())
		t.SetStyle(table.StyleLight)

		header := table.Row{"Cohort"}
		for _, m := range matrix.Months {
			header = append(header, monthName(m))
		}
		t.AppendHeader(header)

		for _, cohort := range matrix.Cohorts {
			row := table.Row{cohort}
			for _, m := range matrix.Months {
				row = append(row, cohortCell(matrix, cohort, m))
			}
			t.AppendRow(row)
		}
		t.Render()
		return nil
	}
}

// cohortCell formats one matrix cell, keeping absent cells blank.
func cohortCell(matrix *report.CohortMatrix, cohort string, month int) string {
	revenue, ok := matrix.Cell(cohort, month)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%.2f", revenue)
}
