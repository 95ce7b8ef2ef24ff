package report

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// ActivationOptions parameterizes the partner activation analysis.
type ActivationOptions struct {
	Year         int // calendar year for the weekly cumulative series
	WindowDays   int // rolling window length in days
	WindowTotal  int // conversation total within the window that marks activation
	SuccessDays  int // days after activation a company has to succeed
	SuccessTotal int // cumulative successful conversations that mark success
}

// DefaultActivationOptions returns the thresholds the analysis was
// originally tuned with.
func DefaultActivationOptions(year int) ActivationOptions {
	return ActivationOptions{
		Year:         year,
		WindowDays:   3,
		WindowTotal:  350,
		SuccessDays:  60,
		SuccessTotal: 500,
	}
}

// CompanyActivation is one partner-sourced company with its activation date,
// if it ever crossed the rolling-window threshold.
type CompanyActivation struct {
	CompanyID      int64     `json:"company_id"`
	CompanyName    string    `json:"company_name"`
	Activated      bool      `json:"activated"`
	ActivationDate time.Time `json:"activation_date,omitzero"`
}

// CompanySuccess is a company that reached the cumulative successful
// conversation threshold within the success window.
type CompanySuccess struct {
	CompanyID   int64     `json:"company_id"`
	CompanyName string    `json:"company_name"`
	SuccessDate time.Time `json:"success_date"`
	Total       int64     `json:"total"`
}

// WeeklyCount is one week of the cumulative success series.
type WeeklyCount struct {
	WeekStart  time.Time `json:"week_start"`
	Count      int       `json:"count"`
	Cumulative int       `json:"cumulative"`
}

// ActivationResult is the full output of the activation analysis.
type ActivationResult struct {
	Companies []CompanyActivation `json:"companies"`
	Successes []CompanySuccess    `json:"successes"`
	Weekly    []WeeklyCount       `json:"weekly"`
}

// activationQuery finds, for every partner-sourced company, the first day a
// rolling window of daily conversation totals reached the threshold.
// Parameters: $1 window total, $2 window length minus one (days preceding).
const activationQuery = `
WITH daily_conversations AS (
    SELECT
        account_id,
        date,
        SUM(total) AS daily_total
    FROM conversations
    GROUP BY account_id, date
),
rolling AS (
    SELECT
        account_id,
        date,
        SUM(daily_total) OVER (
            PARTITION BY account_id
            ORDER BY date
            RANGE BETWEEN make_interval(days => $2::int) PRECEDING AND CURRENT ROW
        ) AS window_total
    FROM daily_conversations
),
first_activation AS (
    SELECT account_id, MIN(date) AS activation_date
    FROM rolling
    WHERE window_total >= $1
    GROUP BY account_id
)
SELECT
    c.id AS company_id,
    c.name AS company_name,
    f.activation_date
FROM company c
LEFT JOIN first_activation f ON c.id = f.account_id
WHERE c.associated_partner IS NOT NULL AND c.associated_partner != ''
ORDER BY c.id`

// successQuery finds the first date the cumulative count of successful
// conversations for one account within the success window crossed the
// threshold. Parameters: $1 account, $2 window start, $3 window end,
// $4 threshold.
const successQuery = `
WITH cumulative AS (
    SELECT
        date,
        SUM(total) OVER (ORDER BY date ROWS BETWEEN UNBOUNDED PRECEDING AND CURRENT ROW) AS cum_total
    FROM conversations
    WHERE account_id = $1
      AND successful = TRUE
      AND date BETWEEN $2 AND $3
)
SELECT MIN(date) AS success_date, MAX(cum_total) AS cum_total
FROM cumulative
WHERE cum_total >= $4`

// Activation runs the partner activation funnel: fetch partner-sourced
// companies with their activation dates, then for each activated company
// the date it reached the success threshold, then the weekly cumulative
// success series for the report year.
func Activation(ctx context.Context, q Querier, opts ActivationOptions) (*ActivationResult, error) {
	companies, err := fetchPartnerCompanies(ctx, q, opts)
	if err != nil {
		return nil, err
	}

	var successes []CompanySuccess
	for _, c := range companies {
		if !c.Activated {
			continue
		}
		s, err := fetchSuccessDate(ctx, q, c, opts)
		if err != nil {
			return nil, err
		}
		if s != nil {
			successes = append(successes, *s)
		}
	}

	return &ActivationResult{
		Companies: companies,
		Successes: successes,
		Weekly:    weeklyCumulative(successes, opts.Year),
	}, nil
}

func fetchPartnerCompanies(ctx context.Context, q Querier, opts ActivationOptions) ([]CompanyActivation, error) {
	rows, err := q.QueryContext(ctx, activationQuery, opts.WindowTotal, opts.WindowDays-1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch partner companies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var companies []CompanyActivation
	for rows.Next() {
		var c CompanyActivation
		var activated sql.NullTime
		if err := rows.Scan(&c.CompanyID, &c.CompanyName, &activated); err != nil {
			return nil, fmt.Errorf("failed to scan company row: %w", err)
		}
		if activated.Valid {
			c.Activated = true
			c.ActivationDate = activated.Time.UTC()
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating company rows: %w", err)
	}
	return companies, nil
}

func fetchSuccessDate(ctx context.Context, q Querier, c CompanyActivation, opts ActivationOptions) (*CompanySuccess, error) {
	windowEnd := c.ActivationDate.AddDate(0, 0, opts.SuccessDays)

	rows, err := q.QueryContext(ctx, successQuery,
		c.CompanyID, c.ActivationDate, windowEnd, opts.SuccessTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch success date for company %d: %w", c.CompanyID, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var successDate sql.NullTime
	var total sql.NullInt64
	if err := rows.Scan(&successDate, &total); err != nil {
		return nil, fmt.Errorf("failed to scan success row: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// MIN over an empty window yields NULL: the company never crossed
	// the threshold inside its success window.
	if !successDate.Valid {
		return nil, nil
	}

	return &CompanySuccess{
		CompanyID:   c.CompanyID,
		CompanyName: c.CompanyName,
		SuccessDate: successDate.Time.UTC(),
		Total:       total.Int64,
	}, nil
}

// weeklyCumulative buckets success dates within year into Monday-anchored
// weeks and accumulates the counts.
func weeklyCumulative(successes []CompanySuccess, year int) []WeeklyCount {
	buckets := make(map[time.Time]int)
	for _, s := range successes {
		if s.SuccessDate.Year() != year {
			continue
		}
		buckets[weekStart(s.SuccessDate)]++
	}
	if len(buckets) == 0 {
		return nil
	}

	weeks := make([]time.Time, 0, len(buckets))
	for w := range buckets {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	// Fill gaps so the series is continuous from first to last week.
	out := make([]WeeklyCount, 0, len(weeks))
	cumulative := 0
	for w := weeks[0]; !w.After(weeks[len(weeks)-1]); w = w.AddDate(0, 0, 7) {
		count := buckets[w]
		cumulative += count
		out = append(out, WeeklyCount{WeekStart: w, Count: count, Cumulative: cumulative})
	}
	return out
}

// weekStart returns the Monday on or before d, at midnight UTC.
func weekStart(d time.Time) time.Time {
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
