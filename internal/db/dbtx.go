package db

import (
	"context"
	"database/sql"
)

// DBTX is what the repositories query through: the *sql.DB for reads and the
// client state table, the *sql.Tx inside a UnitOfWork for service writes.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
