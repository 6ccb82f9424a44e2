package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/pmdash/internal/db"
	"github.com/alexanderramin/pmdash/internal/domain"
)

// SQLiteEntityRepo implements EntityRepo using a SQLite database.
type SQLiteEntityRepo struct {
	db db.DBTX
}

// NewSQLiteEntityRepo creates a new SQLiteEntityRepo.
func NewSQLiteEntityRepo(conn db.DBTX) *SQLiteEntityRepo {
	return &SQLiteEntityRepo{db: conn}
}

const entityColumns = `e.project_id, e.kind, e.id, e.body, e.position, e.updated_at`

// Upsert appends a new entity to the end of its collection or replaces the
// body of an existing one in place.
func (r *SQLiteEntityRepo) Upsert(ctx context.Context, e *EntityRow) error {
	query := `INSERT INTO remote_entities (project_id, kind, id, body, position, updated_at)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM remote_entities WHERE project_id = ? AND kind = ?), ?)
		ON CONFLICT(project_id, kind, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		e.ProjectID,
		string(e.Kind),
		e.ID,
		e.Body,
		e.ProjectID,
		string(e.Kind),
		nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting %s entity: %w", e.Kind, err)
	}
	return nil
}

func (r *SQLiteEntityRepo) Delete(ctx context.Context, projectID string, kind domain.EntityType, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM remote_entities WHERE project_id = ? AND kind = ? AND id = ?`,
		projectID, string(kind), id)
	if err != nil {
		return fmt.Errorf("deleting %s entity: %w", kind, err)
	}
	return nil
}

func (r *SQLiteEntityRepo) ListByProject(ctx context.Context, projectID string) ([]*EntityRow, error) {
	query := `SELECT ` + entityColumns + ` FROM remote_entities e
		WHERE e.project_id = ? ORDER BY e.kind, e.position`
	return r.list(ctx, query, projectID)
}

// ListByTenant returns every entity of every project the tenant owns,
// grouped by project and collection in insertion order.
func (r *SQLiteEntityRepo) ListByTenant(ctx context.Context, tenant string) ([]*EntityRow, error) {
	query := `SELECT ` + entityColumns + ` FROM remote_entities e
		JOIN remote_projects p ON p.id = e.project_id
		WHERE p.tenant = ? ORDER BY p.position, e.project_id, e.kind, e.position`
	return r.list(ctx, query, tenant)
}

func (r *SQLiteEntityRepo) list(ctx context.Context, query string, arg string) ([]*EntityRow, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	var out []*EntityRow
	for rows.Next() {
		var e EntityRow
		var kind, updatedAt string
		if err := rows.Scan(&e.ProjectID, &kind, &e.ID, &e.Body, &e.Position, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		e.Kind = domain.EntityType(kind)
		e.UpdatedAt = parseTime(updatedAt)
		out = append(out, &e)
	}
	return out, rows.Err()
}
