package adapter

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseSQLAdapter_Close(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		expectErr bool
	}{
		{
			name:      "close with nil DB",
			setupDB:   false,
			expectErr: false,
		},
		{
			name:      "close with open DB",
			setupDB:   true,
			expectErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.Conn = db
			}

			err := base.Close()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseSQLAdapter_Exec(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		expectErr bool
		errMsg    string
	}{
		{
			name:      "exec without connection",
			setupDB:   false,
			sql:       "SELECT 1",
			expectErr: true,
			errMsg:    "database connection not established",
		},
		{
			name:    "exec success",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE scratch").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			sql:       "CREATE TABLE scratch (id INT)",
			expectErr: false,
		},
		{
			name:    "exec with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INVALID SQL").WillReturnError(assert.AnError)
			},
			sql:       "INVALID SQL",
			expectErr: true,
			errMsg:    "failed to execute SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()

				if tt.setupMock != nil {
					tt.setupMock(mock)
				}
				base.Conn = db
			}

			err := base.Exec(ctx, tt.sql)
			if tt.expectErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseSQLAdapter_Query(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		args      []any
		expectErr bool
		errMsg    string
	}{
		{
			name:      "query without connection",
			setupDB:   false,
			sql:       "SELECT 1",
			expectErr: true,
			errMsg:    "database connection not established",
		},
		{
			name:    "query success",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "acme")
				mock.ExpectQuery("SELECT id, name FROM company").WillReturnRows(rows)
			},
			sql:       "SELECT id, name FROM company",
			expectErr: false,
		},
		{
			name:    "query with bound args",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"total"}).AddRow(42)
				mock.ExpectQuery("SELECT SUM").WithArgs(7).WillReturnRows(rows)
			},
			sql:       "SELECT SUM(total) FROM conversations WHERE account_id = $1",
			args:      []any{7},
			expectErr: false,
		},
		{
			name:    "query with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT broken").WillReturnError(assert.AnError)
			},
			sql:       "SELECT broken",
			expectErr: true,
			errMsg:    "failed to execute query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			base := &BaseSQLAdapter{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				defer func() { _ = db.Close() }()

				if tt.setupMock != nil {
					tt.setupMock(mock)
				}
				base.Conn = db
			}

			rows, err := base.Query(ctx, tt.sql, tt.args...)
			if tt.expectErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				require.NoError(t, err)
				assert.NoError(t, rows.Close())
			}
		})
	}
}

func TestBaseSQLAdapter_Ping(t *testing.T) {
	t.Run("ping without connection", func(t *testing.T) {
		base := &BaseSQLAdapter{}
		err := base.Ping(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database connection not established")
	})

	t.Run("ping success", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		mock.ExpectPing()

		base := &BaseSQLAdapter{Conn: db}
		assert.NoError(t, base.Ping(context.Background()))
	})
}

func TestBaseSQLAdapter_IsConnected(t *testing.T) {
	base := &BaseSQLAdapter{}
	assert.False(t, base.IsConnected())

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	base.Conn = db
	assert.True(t, base.IsConnected())
	require.NoError(t, base.Close())
}

func TestParseQualifiedName(t *testing.T) {
	tests := []struct {
		name       string
		table      string
		defSchema  string
		wantSchema string
		wantName   string
	}{
		{"unqualified", "company", "public", "public", "company"},
		{"qualified", "analytics.conversations", "public", "analytics", "conversations"},
		{"duckdb default", "stripe_invoice", "main", "main", "stripe_invoice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, name := ParseQualifiedName(tt.table, tt.defSchema)
			assert.Equal(t, tt.wantSchema, schema)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestBaseSQLAdapter_GetTableMetadataCommon(t *testing.T) {
	dollar := func(n int) string { return "?" }

	t.Run("table found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		cols := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
			AddRow("id", "integer", "NO", 1).
			AddRow("close_date", "date", "YES", 2)
		mock.ExpectQuery("information_schema.columns").WithArgs("public", "company").WillReturnRows(cols)
		mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

		base := &BaseSQLAdapter{Conn: db}
		meta, err := base.GetTableMetadataCommon(context.Background(), "company", "public", dollar)
		require.NoError(t, err)
		assert.Equal(t, "public", meta.Schema)
		assert.Equal(t, "company", meta.Name)
		assert.Len(t, meta.Columns, 2)
		assert.False(t, meta.Columns[0].Nullable)
		assert.True(t, meta.Columns[1].Nullable)
		assert.Equal(t, int64(12), meta.RowCount)
	})

	t.Run("table missing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		empty := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"})
		mock.ExpectQuery("information_schema.columns").WillReturnRows(empty)

		base := &BaseSQLAdapter{Conn: db}
		_, err = base.GetTableMetadataCommon(context.Background(), "nope", "public", dollar)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}
