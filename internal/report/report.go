// Package report implements the partnerlens analyses: partner activation,
// monthly close-rate, and revenue cohorts. Each report takes a Querier and
// an options struct, runs parameterized SQL, and returns typed rows ready
// for rendering.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Querier is the minimal query surface reports need. *sql.DB satisfies it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// monthStart returns the first day of the given month in UTC.
func monthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// placeholders builds a "$from, $from+1, ..." list for IN clauses.
func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}
