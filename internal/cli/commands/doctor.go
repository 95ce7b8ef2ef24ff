package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/partnerlens/partnerlens/internal/adapter"
	"github.com/partnerlens/partnerlens/internal/cli/output"
	"github.com/partnerlens/partnerlens/internal/state"
)

// reportTables are the source tables every report depends on.
var reportTables = []string{"company", "conversations", "company_identifiers", "stripe_invoice"}

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check connectivity and report prerequisites",
		Long: `Check that the configured target is reachable and that the tables the
reports depend on exist.

The check covers:
- Target database connectivity
- Presence and row counts of the source tables
- Run-history database accessibility
- Health score (0-100) with actionable recommendations`,
		Example: `  # Run health check
  partnerlens doctor

  # Output as JSON
  partnerlens doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Target          string        `json:"target"`
	Checks          []HealthCheck `json:"checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "pass" or "fail"
	Detail string `json:"detail,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	doctorOutput := buildDoctorOutput(cmd.Context(), cmdCtx)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(doctorOutput)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, doctorOutput)
	default:
		return renderDoctorText(r, doctorOutput)
	}
}

func buildDoctorOutput(ctx context.Context, cmdCtx *CommandContext) *DoctorOutput {
	out := &DoctorOutput{Target: cmdCtx.AdapterConfig().Type}

	connErr := cmdCtx.WithDB(ctx, func(a adapter.Adapter) error {
		out.Checks = append(out.Checks, HealthCheck{Name: "target connection", Status: "pass"})

		for _, tbl := range reportTables {
			meta, err := a.GetTableMetadata(ctx, tbl)
			if err != nil {
				out.Checks = append(out.Checks, HealthCheck{
					Name:   fmt.Sprintf("table %s", tbl),
					Status: "fail",
					Detail: err.Error(),
				})
				out.Recommendations = append(out.Recommendations,
					fmt.Sprintf("Create or seed the %s table (partnerlens seed %s.csv)", tbl, tbl))
				continue
			}
			check := HealthCheck{
				Name:   fmt.Sprintf("table %s", tbl),
				Status: "pass",
				Detail: fmt.Sprintf("%d rows", meta.RowCount),
			}
			if meta.RowCount == 0 {
				out.Recommendations = append(out.Recommendations,
					fmt.Sprintf("Table %s is empty, reports over it will be too", tbl))
			}
			out.Checks = append(out.Checks, check)
		}
		return nil
	})
	if connErr != nil {
		out.Checks = append(out.Checks, HealthCheck{
			Name:   "target connection",
			Status: "fail",
			Detail: connErr.Error(),
		})
		out.Recommendations = append(out.Recommendations,
			"Check target settings in partnerlens.yaml or PARTNERLENS_TARGET_* variables")
	}

	// Run-history store is optional but worth flagging
	store := state.NewSQLiteStore()
	if err := store.Open(cmdCtx.Cfg.StatePath); err != nil {
		out.Checks = append(out.Checks, HealthCheck{
			Name:   "run history",
			Status: "fail",
			Detail: err.Error(),
		})
		out.Recommendations = append(out.Recommendations,
			fmt.Sprintf("Run history at %s is not writable, --state can point elsewhere", cmdCtx.Cfg.StatePath))
	} else {
		_ = store.Close()
		out.Checks = append(out.Checks, HealthCheck{
			Name:   "run history",
			Status: "pass",
			Detail: cmdCtx.Cfg.StatePath,
		})
	}

	out.Score = healthScore(out.Checks)
	return out
}

func healthScore(checks []HealthCheck) int {
	if len(checks) == 0 {
		return 0
	}
	passed := 0
	for _, c := range checks {
		if c.Status == "pass" {
			passed++
		}
	}
	return passed * 100 / len(checks)
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()
	r.Println(styles.Header1.Render("partnerlens doctor"))
	r.Printf("Target: %s\n\n", out.Target)

	for _, c := range out.Checks {
		status := "success"
		if c.Status != "pass" {
			status = "error"
		}
		r.StatusLine(c.Name, status, c.Detail)
	}

	r.Println("")
	switch {
	case out.Score == 100:
		r.Success(fmt.Sprintf("Health score: %d/100", out.Score))
	case out.Score >= 50:
		r.Warning(fmt.Sprintf("Health score: %d/100", out.Score))
	default:
		r.Error(fmt.Sprintf("Health score: %d/100", out.Score))
	}

	if len(out.Recommendations) > 0 {
		r.Println("")
		r.Println(styles.Header2.Render("Recommendations"))
		for _, rec := range out.Recommendations {
			r.Printf("  - %s\n", rec)
		}
	}
	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("## partnerlens doctor")
	r.Println("")
	r.Printf("Target: `%s`\n\n", out.Target)

	r.Println("| Check | Status | Detail |")
	r.Println("| --- | --- | --- |")
	for _, c := range out.Checks {
		r.Printf("| %s | %s | %s |\n", c.Name, c.Status, c.Detail)
	}
	r.Println("")
	r.Printf("**Health score: %d/100**\n", out.Score)

	if len(out.Recommendations) > 0 {
		r.Println("")
		r.Println("### Recommendations")
		for _, rec := range out.Recommendations {
			r.Printf("- %s\n", rec)
		}
	}
	return nil
}
