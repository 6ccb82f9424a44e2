package testutil

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/pmdash/internal/db"
)

// FailingUoW is a db.UnitOfWork that fails one write per transaction. The
// failing write is the FailOn-th ExecContext call (counted from 1) or, when
// Table is set, the first one whose statement mentions Table. Reads pass
// through. The transaction rolls back as it would on a real failure.
type FailingUoW struct {
	DB     *sql.DB
	FailOn int32
	Table  string
	Err    error
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return db.NewSQLiteUnitOfWork(u.DB).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &failingTx{DBTX: tx, uow: u})
	})
}

type failingTx struct {
	db.DBTX
	uow   *FailingUoW
	execs atomic.Int32
}

func (f *failingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	n := f.execs.Add(1)
	if f.uow.Table != "" {
		if strings.Contains(query, f.uow.Table) {
			return nil, f.uow.Err
		}
	} else if n == f.uow.FailOn {
		return nil, f.uow.Err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
