// Package adapter defines the database adapter contract shared by all
// partnerlens commands, plus the connection-scoping helper every report
// runs under. Concrete implementations live in the postgres and duckdb
// subpackages and register themselves at init time.
package adapter

import (
	"context"
	"database/sql"
)

// Adapter is the interface all database backends implement. It provides
// connection lifecycle, statement execution, and light introspection.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a SQL statement that returns rows.
	// The caller owns the returned rows and must close them.
	Query(ctx context.Context, sql string, args ...any) (*sql.Rows, error)

	// DB exposes the underlying database handle for code that needs
	// database/sql directly (ad-hoc query rendering, report functions).
	DB() *sql.DB

	// GetTableMetadata retrieves column and row-count metadata for a table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// LoadCSV loads data from a CSV file into a table, creating the table
	// with TEXT columns if needed.
	LoadCSV(ctx context.Context, tableName, filePath string) error

	// DriverName returns the adapter's registered name (e.g. "postgres").
	DriverName() string
}

// Config holds the parameters needed to reach a database.
type Config struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
}

// Column describes one column of a table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// Metadata holds introspected table metadata.
type Metadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}
