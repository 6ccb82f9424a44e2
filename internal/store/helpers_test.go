package store

import (
	"context"
	"sync"

	"github.com/alexanderramin/pmdash/internal/domain"
)

type recordingSink struct {
	mu   sync.Mutex
	muts []Mutation
}

func (r *recordingSink) Record(m Mutation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muts = append(r.muts, m)
}

func (r *recordingSink) all() []Mutation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Mutation(nil), r.muts...)
}

type memPersister struct {
	saved *AppState
	saves int
	err   error
}

func (m *memPersister) LoadState(context.Context) (AppState, bool, error) {
	if m.saved == nil {
		return AppState{}, false, m.err
	}
	return m.saved.clone(), true, m.err
}

func (m *memPersister) SaveState(_ context.Context, st AppState) error {
	m.saves++
	if m.err != nil {
		return m.err
	}
	c := st.clone()
	m.saved = &c
	return nil
}

func project(id, name string) domain.Project {
	return domain.NewProject(id, domain.ProjectInfo{Name: name})
}

func storeWith(projects ...domain.Project) *ProjectStore {
	return New(WithState(AppState{Projects: projects}))
}
