package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Statements are idempotent, so the full
// list runs on every open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	// Client side: serialized AppState blobs keyed by name.
	`CREATE TABLE IF NOT EXISTS local_state (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		digest     TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	)`,

	// Service side: authoritative per-tenant project data.
	`CREATE TABLE IF NOT EXISTS remote_projects (
		id              TEXT PRIMARY KEY,
		tenant          TEXT NOT NULL,
		info            TEXT NOT NULL DEFAULT '{}',
		contract_amount TEXT NOT NULL DEFAULT '0',
		position        INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_remote_projects_tenant ON remote_projects(tenant, position)`,

	`CREATE TABLE IF NOT EXISTS remote_entities (
		project_id TEXT NOT NULL REFERENCES remote_projects(id) ON DELETE CASCADE,
		kind       TEXT NOT NULL,
		id         TEXT NOT NULL,
		body       TEXT NOT NULL,
		position   INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (project_id, kind, id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_remote_entities_order ON remote_entities(project_id, kind, position)`,
}
