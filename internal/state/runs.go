package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateRun records the start of a report run.
func (s *SQLiteStore) CreateRun(report, environment, params string) (*ReportRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &ReportRun{
		ID:          generateID(),
		Report:      report,
		Environment: environment,
		Params:      params,
		Status:      RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO report_runs (id, report, environment, params, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Report, run.Environment, run.Params, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// CompleteRun marks a run as finished with the given status and row count.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, rowCount int64, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errVal any
	if errMsg != "" {
		errVal = errMsg
	}

	_, err := s.db.Exec(
		`UPDATE report_runs SET status = ?, row_count = ?, error = ?, completed_at = ? WHERE id = ?`,
		status, rowCount, errVal, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*ReportRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, report, environment, params, row_count, status, error, started_at, completed_at
		 FROM report_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first, up to limit.
// An optional report name filters to a single report.
func (s *SQLiteStore) ListRuns(report string, limit int) ([]*ReportRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT id, report, environment, params, row_count, status, error, started_at, completed_at
		FROM report_runs`
	args := []any{}
	if report != "" {
		query += ` WHERE report = ?`
		args = append(args, report)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*ReportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*ReportRun, error) {
	run := &ReportRun{}
	var errMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&run.ID, &run.Report, &run.Environment, &run.Params,
		&run.RowCount, &run.Status, &errMsg, &run.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if errMsg.Valid {
		run.Error = errMsg.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return run, nil
}
