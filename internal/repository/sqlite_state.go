package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/pmdash/internal/db"
)

// SQLiteStateRepo implements StateRepo using a SQLite database.
type SQLiteStateRepo struct {
	db db.DBTX
}

// NewSQLiteStateRepo creates a new SQLiteStateRepo.
func NewSQLiteStateRepo(conn db.DBTX) *SQLiteStateRepo {
	return &SQLiteStateRepo{db: conn}
}

func (r *SQLiteStateRepo) Get(ctx context.Context, key string) (*StateRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT key, value, digest, updated_at FROM local_state WHERE key = ?`, key)

	var rec StateRecord
	var updatedAt string
	if err := row.Scan(&rec.Key, &rec.Value, &rec.Digest, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("state %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning state: %w", err)
	}
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}

func (r *SQLiteStateRepo) Put(ctx context.Context, rec *StateRecord) error {
	query := `INSERT INTO local_state (key, value, digest, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, digest = excluded.digest, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, rec.Key, rec.Value, rec.Digest, formatTime(rec.UpdatedAt)); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}

func (r *SQLiteStateRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM local_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting state: %w", err)
	}
	return nil
}
