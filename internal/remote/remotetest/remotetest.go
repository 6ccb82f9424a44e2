// Package remotetest provides a scriptable remote.Service for tests of the
// sync path and its consumers.
package remotetest

import (
	"context"
	"sync"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/remote"
)

// Call records one write received by Service.
type Call struct {
	Op        remote.ChangeOp
	Tenant    string
	ProjectID string
	Kind      domain.EntityType
	EntityID  string
	Entity    any
}

// Service is a scriptable remote.Service. Nil funcs fall back to
// returning Projects and accepting every write.
type Service struct {
	GetAllProjectsFunc func(ctx context.Context, tenant string) ([]domain.Project, error)
	UpsertFunc         func(ctx context.Context, call Call) error
	DeleteFunc         func(ctx context.Context, call Call) error
	SubscribeErr       error

	mu       sync.Mutex
	Projects []domain.Project
	calls    []Call
	subs     map[int]func(remote.Change)
	nextSub  int
	fetches  int
}

var _ remote.Service = (*Service)(nil)

func (f *Service) GetAllProjects(ctx context.Context, tenant string) ([]domain.Project, error) {
	f.mu.Lock()
	f.fetches++
	fn := f.GetAllProjectsFunc
	projects := make([]domain.Project, len(f.Projects))
	for i, p := range f.Projects {
		projects[i] = p.Clone()
	}
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, tenant)
	}
	return projects, nil
}

func (f *Service) UpsertEntity(ctx context.Context, tenant, projectID string, kind domain.EntityType, entity any) error {
	call := Call{Op: remote.ChangeUpsert, Tenant: tenant, ProjectID: projectID, Kind: kind, Entity: entity}
	if r, ok := entity.(interface{ EntityID() string }); ok {
		call.EntityID = r.EntityID()
	} else {
		call.EntityID = projectID
	}
	f.record(call)
	if f.UpsertFunc != nil {
		return f.UpsertFunc(ctx, call)
	}
	return nil
}

func (f *Service) DeleteEntity(ctx context.Context, tenant, projectID string, kind domain.EntityType, id string) error {
	call := Call{Op: remote.ChangeDelete, Tenant: tenant, ProjectID: projectID, Kind: kind, EntityID: id}
	f.record(call)
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, call)
	}
	return nil
}

func (f *Service) Subscribe(ctx context.Context, tenant string, tables []domain.EntityType, onChange func(remote.Change)) (remote.Subscription, error) {
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]func(remote.Change))
	}
	id := f.nextSub
	f.nextSub++
	f.subs[id] = onChange
	return &fakeSub{f: f, id: id}, nil
}

// Emit delivers c to every open subscription synchronously.
func (f *Service) Emit(c remote.Change) {
	f.mu.Lock()
	fns := make([]func(remote.Change), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// SetProjects replaces the snapshot returned by GetAllProjects.
func (f *Service) SetProjects(projects ...domain.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Projects = projects
}

func (f *Service) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *Service) Fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *Service) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Service) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

type fakeSub struct {
	f  *Service
	id int
}

func (s *fakeSub) Close() error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	delete(s.f.subs, s.id)
	return nil
}
