package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/pmdash/internal/db"
	"github.com/shopspring/decimal"
)

// SQLiteProjectRepo implements ProjectRepo using a SQLite database.
type SQLiteProjectRepo struct {
	db db.DBTX
}

// NewSQLiteProjectRepo creates a new SQLiteProjectRepo.
func NewSQLiteProjectRepo(conn db.DBTX) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: conn}
}

const projectColumns = `id, tenant, info, contract_amount, position, created_at, updated_at`

// Upsert inserts a project at the end of its tenant's list or replaces the
// info of an existing one. Position and contract amount survive updates.
// A project id owned by another tenant is left untouched.
func (r *SQLiteProjectRepo) Upsert(ctx context.Context, p *ProjectRow) error {
	info, err := json.Marshal(p.Info)
	if err != nil {
		return fmt.Errorf("encoding project info: %w", err)
	}
	now := nowUTC()
	created := now
	if !p.CreatedAt.IsZero() {
		created = formatTime(p.CreatedAt)
	}
	query := `INSERT INTO remote_projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM remote_projects WHERE tenant = ?), ?, ?)
		ON CONFLICT(id) DO UPDATE SET info = excluded.info, updated_at = excluded.updated_at
		WHERE remote_projects.tenant = excluded.tenant`
	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.Tenant,
		string(info),
		p.ContractAmount.String(),
		p.Tenant,
		created,
		now,
	)
	if err != nil {
		return fmt.Errorf("upserting project: %w", err)
	}
	return nil
}

func (r *SQLiteProjectRepo) SetContractAmount(ctx context.Context, tenant, id string, amount decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE remote_projects SET contract_amount = ?, updated_at = ? WHERE tenant = ? AND id = ?`,
		amount.String(), nowUTC(), tenant, id)
	if err != nil {
		return fmt.Errorf("updating contract amount: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteProjectRepo) GetByID(ctx context.Context, tenant, id string) (*ProjectRow, error) {
	query := `SELECT ` + projectColumns + ` FROM remote_projects WHERE tenant = ? AND id = ?`
	row := r.db.QueryRowContext(ctx, query, tenant, id)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (r *SQLiteProjectRepo) ListByTenant(ctx context.Context, tenant string) ([]*ProjectRow, error) {
	query := `SELECT ` + projectColumns + ` FROM remote_projects WHERE tenant = ? ORDER BY position, created_at`
	rows, err := r.db.QueryContext(ctx, query, tenant)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*ProjectRow
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Delete removes a project; its entities go with it through the foreign key
// cascade.
func (r *SQLiteProjectRepo) Delete(ctx context.Context, tenant, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM remote_projects WHERE tenant = ? AND id = ?`, tenant, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*ProjectRow, error) {
	var p ProjectRow
	var info, amount, createdAt, updatedAt string
	if err := s.Scan(&p.ID, &p.Tenant, &info, &amount, &p.Position, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}
	if err := json.Unmarshal([]byte(info), &p.Info); err != nil {
		return nil, fmt.Errorf("decoding project info: %w", err)
	}
	var err error
	if p.ContractAmount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parsing contract_amount: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}
