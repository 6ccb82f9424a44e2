package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexanderramin/pmdash/internal/db"
	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/repository"
	"github.com/shopspring/decimal"
)

// Local is the authoritative Service implementation, backed by SQLite. It is
// what the HTTP server exposes and what tests run against.
type Local struct {
	db     *sql.DB
	uow    db.UnitOfWork
	hub    *Hub
	logger *slog.Logger
	now    func() time.Time
}

var _ Service = (*Local)(nil)

type LocalOption func(*Local)

func WithUnitOfWork(uow db.UnitOfWork) LocalOption { return func(l *Local) { l.uow = uow } }

func WithLocalLogger(logger *slog.Logger) LocalOption { return func(l *Local) { l.logger = logger } }

func NewLocal(database *sql.DB, opts ...LocalOption) *Local {
	l := &Local{
		db:     database,
		uow:    db.NewSQLiteUnitOfWork(database),
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.hub = NewHub(l.logger)
	return l
}

// Hub exposes the change fan-out, mainly so tests can count subscribers.
func (l *Local) Hub() *Hub { return l.hub }

func (l *Local) GetAllProjects(ctx context.Context, tenant string) ([]domain.Project, error) {
	rows, err := repository.NewSQLiteProjectRepo(l.db).ListByTenant(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("get all projects: %w", err)
	}
	entities, err := repository.NewSQLiteEntityRepo(l.db).ListByTenant(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("get all projects: %w", err)
	}

	projects := make([]domain.Project, len(rows))
	index := make(map[string]int, len(rows))
	for i, r := range rows {
		projects[i] = domain.NewProject(r.ID, r.Info)
		projects[i].Budget.ContractAmount = r.ContractAmount
		index[r.ID] = i
	}
	for _, e := range entities {
		i, ok := index[e.ProjectID]
		if !ok {
			continue
		}
		if err := projects[i].Attach(e.Kind, []byte(e.Body)); err != nil {
			l.logger.Warn("skipping undecodable entity", "project_id", e.ProjectID, "kind", e.Kind, "id", e.ID, "error", err)
		}
	}
	return projects, nil
}

func (l *Local) UpsertEntity(ctx context.Context, tenant, projectID string, kind domain.EntityType, entity any) error {
	if !kind.Valid() {
		return fmt.Errorf("upsert %q: %w", kind, ErrUnknownEntityType)
	}
	body, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("upsert %s: encoding entity: %w", kind, err)
	}
	id, err := entityKey(projectID, kind, body)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", kind, err)
	}

	err = l.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		projects := repository.NewSQLiteProjectRepo(tx)
		switch kind {
		case domain.KindProjects:
			var h domain.ProjectHeader
			if err := json.Unmarshal(body, &h); err != nil {
				return fmt.Errorf("decoding project header: %w", err)
			}
			return projects.Upsert(ctx, &repository.ProjectRow{ID: projectID, Tenant: tenant, Info: h.Info})
		case domain.KindBudget:
			var h domain.BudgetHeader
			if err := json.Unmarshal(body, &h); err != nil {
				return fmt.Errorf("decoding budget header: %w", err)
			}
			return notFoundAsProject(projects.SetContractAmount(ctx, tenant, projectID, h.ContractAmount))
		default:
			if _, err := projects.GetByID(ctx, tenant, projectID); err != nil {
				return notFoundAsProject(err)
			}
			return repository.NewSQLiteEntityRepo(tx).Upsert(ctx, &repository.EntityRow{
				ProjectID: projectID,
				Kind:      kind,
				ID:        id,
				Body:      string(body),
			})
		}
	})
	if err != nil {
		return fmt.Errorf("upsert %s: %w", kind, err)
	}

	l.publish(tenant, kind, ChangeUpsert, projectID, id)
	return nil
}

// DeleteEntity removes one entity. Deleting a project removes its entities;
// deleting the budget resets the contract amount. Missing rows are not an
// error.
func (l *Local) DeleteEntity(ctx context.Context, tenant, projectID string, kind domain.EntityType, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("delete %q: %w", kind, ErrUnknownEntityType)
	}

	err := l.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		projects := repository.NewSQLiteProjectRepo(tx)
		switch kind {
		case domain.KindProjects:
			return projects.Delete(ctx, tenant, projectID)
		case domain.KindBudget:
			err := projects.SetContractAmount(ctx, tenant, projectID, decimal.Zero)
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		default:
			if _, err := projects.GetByID(ctx, tenant, projectID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil
				}
				return err
			}
			return repository.NewSQLiteEntityRepo(tx).Delete(ctx, projectID, kind, id)
		}
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}

	l.publish(tenant, kind, ChangeDelete, projectID, id)
	return nil
}

// Subscribe delivers changes until the subscription is closed or ctx ends.
func (l *Local) Subscribe(ctx context.Context, tenant string, tables []domain.EntityType, onChange func(Change)) (Subscription, error) {
	for _, t := range tables {
		if !t.Valid() {
			return nil, fmt.Errorf("subscribe %q: %w", t, ErrUnknownEntityType)
		}
	}
	return l.hub.Subscribe(ctx, tenant, tables, onChange), nil
}

func (l *Local) publish(tenant string, kind domain.EntityType, op ChangeOp, projectID, id string) {
	l.hub.Publish(Change{
		Tenant:    tenant,
		Table:     kind,
		Op:        op,
		ProjectID: projectID,
		EntityID:  id,
		At:        l.now().UTC(),
	})
}

func notFoundAsProject(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProjectNotFound
	}
	return err
}
