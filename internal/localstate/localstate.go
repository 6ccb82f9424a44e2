// Package localstate keeps the serialized AppState in the local SQLite
// database so the last known projects render immediately on startup.
package localstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/pmdash/internal/repository"
	"github.com/alexanderramin/pmdash/internal/snapshot"
	"github.com/alexanderramin/pmdash/internal/store"
)

// StateKey is the key the AppState blob is stored under.
const StateKey = "app_state"

// Persister implements store.Persister on top of a StateRepo.
type Persister struct {
	repo  repository.StateRepo
	codec *snapshot.Codec

	mu         sync.Mutex
	lastDigest string
}

var _ store.Persister = (*Persister)(nil)

func New(repo repository.StateRepo, codec *snapshot.Codec) *Persister {
	if codec == nil {
		codec = snapshot.NewCodec(snapshot.FormatJSON, false)
	}
	return &Persister{repo: repo, codec: codec}
}

func (p *Persister) LoadState(ctx context.Context) (store.AppState, bool, error) {
	rec, err := p.repo.Get(ctx, StateKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return store.AppState{}, false, nil
		}
		return store.AppState{}, false, fmt.Errorf("loading local state: %w", err)
	}

	var st store.AppState
	if err := snapshot.Decode(rec.Value, &st); err != nil {
		return store.AppState{}, false, fmt.Errorf("loading local state: %w", err)
	}

	p.mu.Lock()
	p.lastDigest = rec.Digest
	p.mu.Unlock()
	return st, true, nil
}

// SaveState writes st unless its content matches the last blob written or
// read.
func (p *Persister) SaveState(ctx context.Context, st store.AppState) error {
	blob, err := p.codec.Encode(st)
	if err != nil {
		return fmt.Errorf("saving local state: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if blob.Digest == p.lastDigest {
		return nil
	}
	err = p.repo.Put(ctx, &repository.StateRecord{
		Key:       StateKey,
		Value:     blob.Data,
		Digest:    blob.Digest,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("saving local state: %w", err)
	}
	p.lastDigest = blob.Digest
	return nil
}

// Clear removes the stored blob.
func (p *Persister) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.repo.Delete(ctx, StateKey); err != nil {
		return fmt.Errorf("clearing local state: %w", err)
	}
	p.lastDigest = ""
	return nil
}
