package report

import (
	"context"
	"fmt"
	"time"
)

// CloseRateOptions parameterizes the monthly close-rate analysis.
type CloseRateOptions struct {
	Year      int
	FromMonth int
	ToMonth   int
	Threshold int64 // successful conversations per month that mark a company successful
}

// DefaultCloseRateOptions returns the thresholds the analysis was
// originally tuned with.
func DefaultCloseRateOptions(year int) CloseRateOptions {
	return CloseRateOptions{
		Year:      year,
		FromMonth: 1,
		ToMonth:   8,
		Threshold: 1500,
	}
}

// MonthCloseRate is one month of the close-rate series.
type MonthCloseRate struct {
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	Closed     int     `json:"closed"`
	Active     int     `json:"active"`
	Successful int     `json:"successful"`
	Percentage float64 `json:"percentage"`
}

// closedCompaniesQuery lists companies closed inside a date range.
// Parameters: $1 range start (inclusive), $2 range end (exclusive).
const closedCompaniesQuery = `
SELECT id, name
FROM company
WHERE close_date >= $1 AND close_date < $2
ORDER BY id`

// CloseRate computes, for each month in [FromMonth, ToMonth] of Year, the
// percentage of recently closed companies whose successful conversation
// total that month reached the threshold. "Recently closed" means closed in
// the window spanning the preceding and the report month.
func CloseRate(ctx context.Context, q Querier, opts CloseRateOptions) ([]MonthCloseRate, error) {
	return CloseRateWithProgress(ctx, q, opts, nil)
}

// CloseRateWithProgress is CloseRate with a per-month callback, used by the
// CLI to drive a progress tracker.
func CloseRateWithProgress(ctx context.Context, q Querier, opts CloseRateOptions, onMonth func(MonthCloseRate)) ([]MonthCloseRate, error) {
	if opts.FromMonth < 1 || opts.ToMonth > 12 || opts.FromMonth > opts.ToMonth {
		return nil, fmt.Errorf("invalid month range %d..%d", opts.FromMonth, opts.ToMonth)
	}

	results := make([]MonthCloseRate, 0, opts.ToMonth-opts.FromMonth+1)
	for m := opts.FromMonth; m <= opts.ToMonth; m++ {
		mc, err := closeRateForMonth(ctx, q, opts, time.Month(m))
		if err != nil {
			return nil, err
		}
		results = append(results, mc)
		if onMonth != nil {
			onMonth(mc)
		}
	}
	return results, nil
}

func closeRateForMonth(ctx context.Context, q Querier, opts CloseRateOptions, month time.Month) (MonthCloseRate, error) {
	mc := MonthCloseRate{Year: opts.Year, Month: int(month)}

	// Closed-company window: first of the preceding month (inclusive)
	// through first of the following month (exclusive).
	windowStart := monthStart(opts.Year, month).AddDate(0, -1, 0)
	windowEnd := monthStart(opts.Year, month).AddDate(0, 1, 0)

	ids, err := fetchClosedCompanies(ctx, q, windowStart, windowEnd)
	if err != nil {
		return mc, err
	}
	mc.Closed = len(ids)
	if len(ids) == 0 {
		// No closures in the window: 0%, never divide by zero.
		return mc, nil
	}

	totals, err := fetchMonthlySuccessTotals(ctx, q, ids, opts.Year, month)
	if err != nil {
		return mc, err
	}

	mc.Active = len(totals)
	for _, total := range totals {
		if total >= opts.Threshold {
			mc.Successful++
		}
	}
	if mc.Active > 0 {
		mc.Percentage = float64(mc.Successful) / float64(mc.Active) * 100
	}
	return mc, nil
}

func fetchClosedCompanies(ctx context.Context, q Querier, start, end time.Time) ([]int64, error) {
	rows, err := q.QueryContext(ctx, closedCompaniesQuery, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch closed companies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan closed company: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating closed companies: %w", err)
	}
	return ids, nil
}

// fetchMonthlySuccessTotals sums successful conversations per company for
// one calendar month, joining companies to conversation accounts through
// company_identifiers.
func fetchMonthlySuccessTotals(ctx context.Context, q Querier, companyIDs []int64, year int, month time.Month) (map[int64]int64, error) {
	rangeStart := monthStart(year, month)
	rangeEnd := rangeStart.AddDate(0, 1, 0)

	//nolint:gosec // Placeholder list is generated, values are bound
	query := fmt.Sprintf(`
SELECT ci.company_id, SUM(cv.total) AS total
FROM company_identifiers ci
JOIN conversations cv ON cv.account_id = ci.account_identifier
WHERE cv.successful = TRUE
  AND cv.date >= $1 AND cv.date < $2
  AND ci.company_id IN (%s)
GROUP BY ci.company_id`, placeholders(3, len(companyIDs)))

	args := make([]any, 0, len(companyIDs)+2)
	args = append(args, rangeStart, rangeEnd)
	for _, id := range companyIDs {
		args = append(args, id)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch success totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	totals := make(map[int64]int64)
	for rows.Next() {
		var id, total int64
		if err := rows.Scan(&id, &total); err != nil {
			return nil, fmt.Errorf("failed to scan success total: %w", err)
		}
		totals[id] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating success totals: %w", err)
	}
	return totals, nil
}
