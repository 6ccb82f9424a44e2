package store

import (
	"context"

	"github.com/alexanderramin/pmdash/internal/domain"
)

// AppState is everything the store owns: the ordered project list and the id
// of the active project. ActiveProjectID is empty only when Projects is empty.
type AppState struct {
	Projects        []domain.Project `json:"projects"`
	ActiveProjectID string           `json:"activeProjectId"`
}

func (s AppState) clone() AppState {
	out := AppState{ActiveProjectID: s.ActiveProjectID, Projects: make([]domain.Project, len(s.Projects))}
	for i, p := range s.Projects {
		out.Projects[i] = p.Clone()
	}
	return out
}

func (s AppState) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, p := range s.Projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// repairActive points ActiveProjectID at an existing project whenever one
// exists, preferring the current pointer.
func (s *AppState) repairActive() {
	if s.indexOf(s.ActiveProjectID) >= 0 {
		return
	}
	if len(s.Projects) > 0 {
		s.ActiveProjectID = s.Projects[0].ID
		return
	}
	s.ActiveProjectID = ""
}

// Persister is the local durable storage for the serialized AppState.
type Persister interface {
	LoadState(ctx context.Context) (AppState, bool, error)
	SaveState(ctx context.Context, state AppState) error
}

type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// Mutation describes one optimistic local change that still has to reach the
// remote service. Entity is set for upserts only.
type Mutation struct {
	Op        Op
	ProjectID string
	Kind      domain.EntityType
	EntityID  string
	Entity    any
}

// Sink receives mutations in the order they were applied locally. Record is
// called with the store lock held and must neither block nor call back into
// the store.
type Sink interface {
	Record(m Mutation)
}

// Source tells listeners whether a change came from a local mutation or a
// remote reload.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
	SourceDisk   Source = "disk"
)

// Event is delivered to listeners after every state change.
type Event struct {
	Source  Source
	Version uint64
}
