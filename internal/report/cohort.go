package report

import (
	"context"
	"fmt"
	"time"
)

// CohortOptions parameterizes the revenue cohort analysis.
type CohortOptions struct {
	Year      int
	FromMonth int
	ToMonth   int
}

// DefaultCohortOptions returns the range the analysis was originally run on.
func DefaultCohortOptions(year int) CohortOptions {
	return CohortOptions{Year: year, FromMonth: 1, ToMonth: 8}
}

// CohortMatrix is the pivoted cohort × invoice-month revenue table.
// Cells for invoice months before a cohort's close month are absent, not
// zero: the blank upper triangle carries meaning.
type CohortMatrix struct {
	Cohorts []string                   `json:"cohorts"` // "2023-01", ...
	Months  []int                      `json:"months"`  // invoice months covered
	Revenue map[string]map[int]float64 `json:"revenue"`
}

// Cell returns the revenue for one cohort/invoice-month pair, and whether
// the cohort had any invoices that month.
func (m *CohortMatrix) Cell(cohort string, month int) (float64, bool) {
	row, ok := m.Revenue[cohort]
	if !ok {
		return 0, false
	}
	v, ok := row[month]
	return v, ok
}

// cohortRevenueQuery sums invoice revenue by month for the companies closed
// in one cohort month, joining through their Stripe identifiers.
// Parameters: $1 cohort month start, $2 cohort month end (exclusive),
// $3 range end (exclusive).
const cohortRevenueQuery = `
WITH cohort_companies AS (
    SELECT id AS company_id
    FROM company
    WHERE close_date >= $1 AND close_date < $2
),
stripe_ids AS (
    SELECT stripe_company_ids
    FROM company_identifiers
    WHERE company_id IN (SELECT company_id FROM cohort_companies)
)
SELECT
    CAST(EXTRACT(MONTH FROM si.sent_date) AS int) AS invoice_month,
    SUM(si.amount) AS revenue
FROM stripe_invoice si
JOIN stripe_ids s ON si.company_id = s.stripe_company_ids
WHERE si.sent_date >= $1 AND si.sent_date < $3
GROUP BY invoice_month
ORDER BY invoice_month`

// Cohort builds the revenue cohort matrix: for each close-month cohort in
// [FromMonth, ToMonth] of Year, the invoice revenue per month from the
// cohort's close month through ToMonth.
func Cohort(ctx context.Context, q Querier, opts CohortOptions) (*CohortMatrix, error) {
	if opts.FromMonth < 1 || opts.ToMonth > 12 || opts.FromMonth > opts.ToMonth {
		return nil, fmt.Errorf("invalid month range %d..%d", opts.FromMonth, opts.ToMonth)
	}

	matrix := &CohortMatrix{
		Revenue: make(map[string]map[int]float64),
	}
	for m := opts.FromMonth; m <= opts.ToMonth; m++ {
		matrix.Months = append(matrix.Months, m)
	}

	rangeEnd := monthStart(opts.Year, time.Month(opts.ToMonth)).AddDate(0, 1, 0)

	for m := opts.FromMonth; m <= opts.ToMonth; m++ {
		cohortStart := monthStart(opts.Year, time.Month(m))
		cohortEnd := cohortStart.AddDate(0, 1, 0)
		label := fmt.Sprintf("%04d-%02d", opts.Year, m)

		row, err := fetchCohortRevenue(ctx, q, cohortStart, cohortEnd, rangeEnd)
		if err != nil {
			return nil, fmt.Errorf("cohort %s: %w", label, err)
		}

		matrix.Cohorts = append(matrix.Cohorts, label)
		matrix.Revenue[label] = row
	}

	return matrix, nil
}

func fetchCohortRevenue(ctx context.Context, q Querier, cohortStart, cohortEnd, rangeEnd time.Time) (map[int]float64, error) {
	rows, err := q.QueryContext(ctx, cohortRevenueQuery, cohortStart, cohortEnd, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cohort revenue: %w", err)
	}
	defer func() { _ = rows.Close() }()

	row := make(map[int]float64)
	for rows.Next() {
		var month int
		var revenue float64
		if err := rows.Scan(&month, &revenue); err != nil {
			return nil, fmt.Errorf("failed to scan cohort revenue: %w", err)
		}
		row[month] = revenue
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cohort revenue: %w", err)
	}
	return row, nil
}
