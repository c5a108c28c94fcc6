// Package database provides the connection pool, transaction helper and
// placeholder rebinding shared by the repositories.
package database

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by repositories. Both *sql.DB
// and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Transactor runs a function inside a database transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

var (
	_ DBTX          = (*sql.DB)(nil)
	_ DBTX          = (*sql.Tx)(nil)
	_ Transactor    = (*Pool)(nil)
	_ HealthChecker = (*Pool)(nil)
)
