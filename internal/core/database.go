package core

import (
	"context"
)

// Database defines the operations the repositories need from the relational store.
// Every call is a single statement executed on the shared connection pool.
type Database interface {
	// Query executes a SELECT statement and returns the resulting rows.
	// The caller must close the returned Rows.
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)

	// Exec executes a statement that does not return rows (INSERT, UPDATE, DELETE).
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)

	// SelectStrings executes a single-column query and collects the values.
	// NULL values are skipped.
	SelectStrings(ctx context.Context, query string, args ...interface{}) ([]string, error)

	// GetSchema reads the live layout of a table.
	GetSchema(ctx context.Context, tableName string) (*Schema, error)

	// Close releases the underlying connection pool.
	Close() error
}

// Rows is a cursor over the result of a query.
type Rows interface {
	// Columns returns the column names of the result set, in select order.
	Columns() ([]string, error)

	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Result summarises an executed statement.
type Result interface {
	RowsAffected() (int64, error)
}
