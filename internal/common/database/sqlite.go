// internal/common/database/sqlite.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteClient wraps the single handle to the embedded job database.
// The handle is opened once per process and closed by its owner.
type SQLiteClient struct {
	DB   *sql.DB
	path string

	mu     sync.Mutex
	closed bool
}

// NewSQLite opens (creating if needed) the database file at path and enables
// foreign keys.
func NewSQLite(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// one connection keeps pragmas and the file lock in a single place
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	return &SQLiteClient{DB: db, path: path}, nil
}

// NewSQLiteFromDB wraps an already open handle (used with sqlmock).
func NewSQLiteFromDB(db *sql.DB) *SQLiteClient {
	return &SQLiteClient{DB: db}
}

// Path returns the database file path, empty for wrapped handles.
func (c *SQLiteClient) Path() string {
	return c.path
}

// Ping tests the database connection
func (c *SQLiteClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close releases the handle. Calling it more than once is a no-op.
func (c *SQLiteClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.DB == nil {
		return nil
	}
	c.closed = true
	return c.DB.Close()
}

// Closed reports whether Close has been called.
func (c *SQLiteClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Query executes a query that returns rows
func (c *SQLiteClient) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.DB.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns at most one row
func (c *SQLiteClient) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.DB.QueryRowContext(ctx, query, args...)
}

// Exec executes a query that doesn't return rows
func (c *SQLiteClient) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.DB.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction on the underlying handle.
func (c *SQLiteClient) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.DB.BeginTx(ctx, nil)
}

// GetDB returns the underlying *sql.DB for compatibility
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.DB
}

// UserVersion reads PRAGMA user_version, where the table schema version lives.
func (c *SQLiteClient) UserVersion(ctx context.Context) (int, error) {
	var v int
	if err := c.DB.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

// SetUserVersion writes PRAGMA user_version. Pragmas do not take bound
// parameters, so the value is formatted into the statement.
func (c *SQLiteClient) SetUserVersion(ctx context.Context, v int) error {
	if _, err := c.DB.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
		return fmt.Errorf("write user_version: %w", err)
	}
	return nil
}

// ColumnNames returns the set of column names of table via PRAGMA table_info.
func (c *SQLiteClient) ColumnNames(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := c.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
