// Package chart renders report results as self-contained HTML charts.
// Each writer emits a single page with an embedded echarts visualization,
// suitable for opening directly in a browser or attaching to a review doc.
package chart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/partnerlens/partnerlens/internal/report"
)

const (
	chartWidth  = "1100px"
	chartHeight = "600px"
)

// WriteActivation renders the weekly cumulative success series as a line
// chart.
func WriteActivation(w io.Writer, result *report.ActivationResult, year int) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("Partner Activation %d", year),
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Partner Activation %d", year),
			Subtitle: "Cumulative companies reaching the success threshold, by week",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "companies"}),
	)

	weeks := make([]string, 0, len(result.Weekly))
	cumulative := make([]opts.LineData, 0, len(result.Weekly))
	counts := make([]opts.LineData, 0, len(result.Weekly))
	for _, wk := range result.Weekly {
		weeks = append(weeks, wk.WeekStart.Format("2006-01-02"))
		cumulative = append(cumulative, opts.LineData{Value: wk.Cumulative})
		counts = append(counts, opts.LineData{Value: wk.Count})
	}

	line.SetXAxis(weeks).
		AddSeries("cumulative", cumulative).
		AddSeries("per week", counts)
	return line.Render(w)
}

// WriteCloseRate renders the monthly close-rate series as a line chart.
func WriteCloseRate(w io.Writer, results []report.MonthCloseRate) error {
	line := charts.NewLine()

	year := 0
	if len(results) > 0 {
		year = results[0].Year
	}
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("Close Rate %d", year),
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Close Rate %d", year),
			Subtitle: "Share of recently closed companies over the monthly success threshold",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "%", Max: 100}),
	)

	months := make([]string, 0, len(results))
	pct := make([]opts.LineData, 0, len(results))
	for _, mc := range results {
		months = append(months, monthLabel(mc.Month))
		pct = append(pct, opts.LineData{Value: mc.Percentage})
	}

	line.SetXAxis(months).AddSeries("close rate", pct)
	return line.Render(w)
}

// WriteCohort renders the cohort revenue matrix as a heatmap: cohorts on
// the y axis, invoice months on the x axis. Absent cells are left blank so
// the upper triangle stays visually empty.
func WriteCohort(w io.Writer, matrix *report.CohortMatrix) error {
	heatmap := charts.NewHeatMap()

	var data []opts.HeatMapData
	var maxRevenue float64
	for yi, cohort := range matrix.Cohorts {
		for xi, month := range matrix.Months {
			revenue, ok := matrix.Cell(cohort, month)
			if !ok {
				continue
			}
			if revenue > maxRevenue {
				maxRevenue = revenue
			}
			data = append(data, opts.HeatMapData{Value: [3]any{xi, yi, revenue}})
		}
	}

	months := make([]string, 0, len(matrix.Months))
	for _, m := range matrix.Months {
		months = append(months, monthLabel(m))
	}

	heatmap.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Revenue Cohorts",
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Revenue Cohorts",
			Subtitle: "Invoice revenue by close-month cohort",
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: months}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: matrix.Cohorts}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxRevenue),
		}),
	)

	heatmap.AddSeries("revenue", data)
	return heatmap.Render(w)
}

// WriteFile creates path (and any missing parent directories) and streams
// the chart into it.
func WriteFile(path string, render func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create chart directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	renderErr := render(f)
	return errors.Join(renderErr, f.Close())
}

func monthLabel(m int) string {
	return time.Month(m).String()[:3]
}
