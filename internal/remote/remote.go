// Package remote is the boundary to the multi-tenant data service that holds
// the authoritative copy of every project.
package remote

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/pmdash/internal/domain"
)

var (
	ErrUnknownEntityType = errors.New("unknown entity type")
	ErrProjectNotFound   = errors.New("project not found")
	ErrMissingEntityID   = errors.New("entity id is required")
)

type ChangeOp string

const (
	ChangeUpsert ChangeOp = "upsert"
	ChangeDelete ChangeOp = "delete"
	// ChangeResync is emitted after a dropped change stream reconnects;
	// changes may have been missed in between.
	ChangeResync ChangeOp = "resync"
)

// Change is a notification that a table changed for a tenant. Consumers use
// it as a trigger to reload, not as a delta.
type Change struct {
	Tenant    string            `json:"tenant"`
	Table     domain.EntityType `json:"table"`
	Op        ChangeOp          `json:"op"`
	ProjectID string            `json:"projectId"`
	EntityID  string            `json:"entityId"`
	At        time.Time         `json:"at"`
}

// Subscription is an open change feed. Close stops delivery; it is safe to
// call more than once.
type Subscription interface {
	Close() error
}

// Service is the remote data service. Writes are last-writer-wins; there is
// no cross-client locking.
type Service interface {
	GetAllProjects(ctx context.Context, tenant string) ([]domain.Project, error)
	UpsertEntity(ctx context.Context, tenant, projectID string, kind domain.EntityType, entity any) error
	DeleteEntity(ctx context.Context, tenant, projectID string, kind domain.EntityType, id string) error
	Subscribe(ctx context.Context, tenant string, tables []domain.EntityType, onChange func(Change)) (Subscription, error)
}

// entityKey resolves the row id an entity is stored under. Project and
// budget headers live under their project id.
func entityKey(projectID string, kind domain.EntityType, body []byte) (string, error) {
	if !kind.IsCollection() {
		return projectID, nil
	}
	id, err := domain.RecordID(body)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrMissingEntityID
	}
	return id, nil
}
