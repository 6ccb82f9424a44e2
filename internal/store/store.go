package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/pmdash/internal/domain"
)

// ErrNegativeAmount rejects negative budget contract amounts.
var ErrNegativeAmount = errors.New("amount must not be negative")

// ProjectStore is the canonical client-side copy of all projects. Mutations
// apply to memory immediately, write through to the Persister, and are
// handed to the Sink for asynchronous remote persistence. There is no
// rollback.
type ProjectStore struct {
	mu        sync.RWMutex
	state     AppState
	version   uint64
	persister Persister
	sink      Sink
	logger    *slog.Logger
	now       func() time.Time

	listenMu  sync.Mutex
	listeners map[int]func(Event)
	nextID    int
}

type Option func(*ProjectStore)

func WithPersister(p Persister) Option { return func(s *ProjectStore) { s.persister = p } }

func WithSink(sink Sink) Option { return func(s *ProjectStore) { s.sink = sink } }

func WithLogger(l *slog.Logger) Option { return func(s *ProjectStore) { s.logger = l } }

func WithClock(now func() time.Time) Option { return func(s *ProjectStore) { s.now = now } }

// WithState seeds the store, mainly for tests.
func WithState(st AppState) Option {
	return func(s *ProjectStore) {
		s.state = st.clone()
		for i := range s.state.Projects {
			s.state.Projects[i].Normalize()
		}
		s.state.repairActive()
	}
}

func New(opts ...Option) *ProjectStore {
	s := &ProjectStore{
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
		listeners: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSink attaches the remote write path after construction. The SyncAgent
// needs the store to exist before it can be the store's sink.
func (s *ProjectStore) SetSink(sink Sink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// Load restores the last persisted AppState. A missing blob leaves the store
// empty. It is meant to run once at startup, before the first remote fetch.
func (s *ProjectStore) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	st, ok, err := s.persister.LoadState(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	for i := range st.Projects {
		st.Projects[i].Normalize()
	}
	st.repairActive()

	s.mu.Lock()
	s.state = st
	s.version++
	v := s.version
	s.mu.Unlock()

	s.notify(Event{Source: SourceDisk, Version: v})
	return nil
}

// Snapshot returns a deep copy of the full state.
func (s *ProjectStore) Snapshot() AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Version increases by one on every state change.
func (s *ProjectStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *ProjectStore) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ActiveProjectID
}

// Active returns a copy of the active project, or domain.EmptyProject when
// there is none.
func (s *ProjectStore) Active() domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.state.indexOf(s.state.ActiveProjectID); i >= 0 {
		return s.state.Projects[i].Clone()
	}
	return domain.EmptyProject()
}

// Project returns a copy of the project with the given id.
func (s *ProjectStore) Project(id string) (domain.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.state.indexOf(id); i >= 0 {
		return s.state.Projects[i].Clone(), true
	}
	return domain.Project{}, false
}

// AddProject appends a fully formed project. It does not switch to it unless
// the store had no active project.
func (s *ProjectStore) AddProject(p domain.Project) {
	p = p.Clone()
	p.Normalize()
	s.commit(func(st *AppState) ([]Mutation, bool) {
		if p.ID == "" || st.indexOf(p.ID) >= 0 {
			s.logger.Warn("add project ignored", "project_id", p.ID, "reason", "empty or duplicate id")
			return nil, false
		}
		st.Projects = append(st.Projects, p)
		st.repairActive()
		return projectMutations(p), true
	})
}

func projectMutations(p domain.Project) []Mutation {
	muts := []Mutation{{Op: OpUpsert, ProjectID: p.ID, Kind: domain.KindProjects, EntityID: p.ID, Entity: p.Header()}}
	for _, r := range p.Records() {
		muts = append(muts, Mutation{Op: OpUpsert, ProjectID: p.ID, Kind: r.Kind, EntityID: r.ID, Entity: r.Value})
	}
	return muts
}

// SwitchProject moves the active pointer. Unknown ids leave it unchanged and
// report false.
func (s *ProjectStore) SwitchProject(id string) bool {
	switched := false
	s.commit(func(st *AppState) ([]Mutation, bool) {
		if st.indexOf(id) < 0 {
			return nil, false
		}
		if st.ActiveProjectID == id {
			switched = true
			return nil, false
		}
		st.ActiveProjectID = id
		switched = true
		return nil, true
	})
	return switched
}

// DeleteProject removes a project. When it was active the pointer moves to
// the first remaining project, or to none.
func (s *ProjectStore) DeleteProject(id string) {
	s.commit(func(st *AppState) ([]Mutation, bool) {
		i := st.indexOf(id)
		if i < 0 {
			return nil, false
		}
		st.Projects = append(st.Projects[:i:i], st.Projects[i+1:]...)
		st.repairActive()
		return []Mutation{{Op: OpDelete, ProjectID: id, Kind: domain.KindProjects, EntityID: id}}, true
	})
}

// UpdateProjectInfo merges patch into a project's info header.
func (s *ProjectStore) UpdateProjectInfo(id string, patch domain.Patch) error {
	var patchErr error
	s.commit(func(st *AppState) ([]Mutation, bool) {
		i := st.indexOf(id)
		if i < 0 {
			return nil, false
		}
		info, err := domain.ApplyPatch(st.Projects[i].Info, patch)
		if err != nil {
			patchErr = err
			return nil, false
		}
		st.Projects[i].Info = info
		p := st.Projects[i]
		return []Mutation{{Op: OpUpsert, ProjectID: id, Kind: domain.KindProjects, EntityID: id, Entity: p.Header()}}, true
	})
	return patchErr
}

// Replace swaps the whole project list for a remote snapshot. Nothing is
// merged: local projects missing from the snapshot disappear. The active
// pointer survives when its project is still present.
func (s *ProjectStore) Replace(projects []domain.Project) {
	next := make([]domain.Project, len(projects))
	for i, p := range projects {
		next[i] = p.Clone()
		next[i].Normalize()
	}
	s.commitFrom(SourceRemote, func(st *AppState) ([]Mutation, bool) {
		st.Projects = next
		st.repairActive()
		return nil, true
	})
}

// Listen registers fn to run after every state change. The returned func
// removes it.
func (s *ProjectStore) Listen(fn func(Event)) (cancel func()) {
	s.listenMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenMu.Lock()
			delete(s.listeners, id)
			s.listenMu.Unlock()
		})
	}
}

func (s *ProjectStore) commit(fn func(st *AppState) ([]Mutation, bool)) {
	s.commitFrom(SourceLocal, fn)
}

// commitFrom applies fn under the write lock, persists, forwards mutations to
// the sink and finally notifies listeners outside the lock.
func (s *ProjectStore) commitFrom(src Source, fn func(st *AppState) ([]Mutation, bool)) {
	s.mu.Lock()
	muts, changed := fn(&s.state)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.version++
	v := s.version
	s.persistLocked()
	if s.sink != nil {
		for _, m := range muts {
			s.sink.Record(m)
		}
	}
	s.mu.Unlock()

	s.notify(Event{Source: src, Version: v})
}

func (s *ProjectStore) persistLocked() {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveState(context.Background(), s.state); err != nil {
		s.logger.Warn("persisting local state failed", "error", err)
	}
}

func (s *ProjectStore) notify(ev Event) {
	s.listenMu.Lock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
