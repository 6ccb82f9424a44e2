package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned (wrapped) when a row does not exist.
var ErrNotFound = errors.New("not found")

// StateRecord is one serialized blob in the client-side key-value table.
type StateRecord struct {
	Key       string
	Value     []byte
	Digest    string
	UpdatedAt time.Time
}

// ProjectRow is a project header as stored by the remote data service.
type ProjectRow struct {
	ID             string
	Tenant         string
	Info           domain.ProjectInfo
	ContractAmount decimal.Decimal
	Position       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EntityRow is one collection entity stored as its JSON body.
type EntityRow struct {
	ProjectID string
	Kind      domain.EntityType
	ID        string
	Body      string
	Position  int
	UpdatedAt time.Time
}

type StateRepo interface {
	Get(ctx context.Context, key string) (*StateRecord, error)
	Put(ctx context.Context, rec *StateRecord) error
	Delete(ctx context.Context, key string) error
}

type ProjectRepo interface {
	Upsert(ctx context.Context, p *ProjectRow) error
	SetContractAmount(ctx context.Context, tenant, id string, amount decimal.Decimal) error
	GetByID(ctx context.Context, tenant, id string) (*ProjectRow, error)
	ListByTenant(ctx context.Context, tenant string) ([]*ProjectRow, error)
	Delete(ctx context.Context, tenant, id string) error
}

type EntityRepo interface {
	Upsert(ctx context.Context, e *EntityRow) error
	Delete(ctx context.Context, projectID string, kind domain.EntityType, id string) error
	ListByProject(ctx context.Context, projectID string) ([]*EntityRow, error)
	ListByTenant(ctx context.Context, tenant string) ([]*EntityRow, error)
}
