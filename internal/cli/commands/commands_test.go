// Package commands tests for CLI command creation and rendering.
package commands

import (
	"bytes"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partnerlens/partnerlens/internal/cli/output"
	"github.com/partnerlens/partnerlens/internal/report"
)

func TestNewActivationCommand(t *testing.T) {
	cmd := NewActivationCommand()

	assert.Equal(t, "activation", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"year", "window-days", "window-total", "success-days", "success-total", "chart"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewCloseRateCommand(t *testing.T) {
	cmd := NewCloseRateCommand()

	assert.Equal(t, "closerate", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	flags := []string{"year", "from", "to", "threshold", "chart"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewCohortCommand(t *testing.T) {
	cmd := NewCohortCommand()

	assert.Equal(t, "cohort", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	flags := []string{"year", "from", "to", "chart"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewQueryCommand(t *testing.T) {
	cmd := NewQueryCommand()

	assert.Equal(t, "query [SQL]", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("format"), "flag format should exist")
	assert.NotNil(t, cmd.Flags().Lookup("input"), "flag input should exist")

	subNames := make([]string, 0)
	for _, sub := range cmd.Commands() {
		subNames = append(subNames, sub.Name())
	}
	assert.Contains(t, subNames, "tables")
	assert.Contains(t, subNames, "schema")
}

func TestNewSeedCommand(t *testing.T) {
	cmd := NewSeedCommand()

	assert.Equal(t, "seed <file.csv> [file.csv...]", cmd.Use)
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("table"), "flag table should exist")
}

func TestNewDoctorCommand(t *testing.T) {
	cmd := NewDoctorCommand()

	assert.Equal(t, "doctor", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("format"), "flag format should exist")
}

func TestNewHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand()

	assert.Equal(t, "history", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("report"), "flag report should exist")
	assert.NotNil(t, cmd.Flags().Lookup("limit"), "flag limit should exist")
}

func TestTableNameFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data/company.csv", "company"},
		{"Stripe-Invoice.csv", "stripe_invoice"},
		{"/tmp/exports/conversations.CSV", "conversations"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tableNameFromPath(tt.path), "tableNameFromPath(%q)", tt.path)
	}
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "January", monthName(1))
	assert.Equal(t, "August", monthName(8))
}

func TestRenderResultsFormats(t *testing.T) {
	newRows := func(t *testing.T) (*bytes.Buffer, func(format string) error) {
		t.Helper()
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		var buf bytes.Buffer
		return &buf, func(format string) error {
			mock.ExpectQuery("SELECT").WillReturnRows(
				sqlmock.NewRows([]string{"name", "total"}).
					AddRow("Acme", 42).
					AddRow("Globex, Inc", 7))
			rows, err := db.Query("SELECT name, total FROM t")
			require.NoError(t, err)
			defer func() { _ = rows.Close() }()
			return renderResults(&buf, rows, format)
		}
	}

	t.Run("table", func(t *testing.T) {
		buf, render := newRows(t)
		require.NoError(t, render("table"))
		assert.Contains(t, buf.String(), "Acme")
		assert.Contains(t, buf.String(), "(2 rows)")
	})

	t.Run("json", func(t *testing.T) {
		buf, render := newRows(t)
		require.NoError(t, render("json"))
		assert.Contains(t, buf.String(), `"name": "Acme"`)
	})

	t.Run("csv quotes commas", func(t *testing.T) {
		buf, render := newRows(t)
		require.NoError(t, render("csv"))
		assert.Contains(t, buf.String(), "name,total")
		assert.Contains(t, buf.String(), `"Globex, Inc"`)
	})

	t.Run("markdown", func(t *testing.T) {
		buf, render := newRows(t)
		require.NoError(t, render("md"))
		assert.Contains(t, buf.String(), "| name | total |")
		assert.Contains(t, buf.String(), "| --- | --- |")
	})
}

func TestRenderCloseRateMarkdown(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRendererWithTTY(&buf, &buf, false, output.ModeMarkdown)

	results := []report.MonthCloseRate{
		{Year: 2023, Month: 1, Closed: 4, Active: 3, Successful: 2, Percentage: 66.7},
	}
	require.NoError(t, renderCloseRate(r, results, report.CloseRateOptions{Year: 2023}))

	out := buf.String()
	assert.Contains(t, out, "## Close Rate 2023")
	assert.Contains(t, out, "| January | 4 | 3 | 2 | 66.7% |")
}

func TestRenderCohortText(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRendererWithTTY(&buf, &buf, false, output.ModeText)

	matrix := &report.CohortMatrix{
		Cohorts: []string{"2023-01", "2023-02"},
		Months:  []int{1, 2},
		Revenue: map[string]map[int]float64{
			"2023-01": {1: 1200.5, 2: 800},
			"2023-02": {2: 300},
		},
	}
	require.NoError(t, renderCohort(r, matrix, report.CohortOptions{Year: 2023}))

	out := buf.String()
	assert.Contains(t, out, "2023-01")
	assert.Contains(t, out, "1200.50")
	// Upper-triangle cell for the February cohort stays blank
	assert.NotContains(t, out, "0.00")
}

func TestHealthScore(t *testing.T) {
	assert.Equal(t, 0, healthScore(nil))
	assert.Equal(t, 100, healthScore([]HealthCheck{{Status: "pass"}}))
	assert.Equal(t, 50, healthScore([]HealthCheck{{Status: "pass"}, {Status: "fail"}}))
}
