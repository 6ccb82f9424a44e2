// Package syncagent reconciles the local ProjectStore with the remote data
// service: it loads the remote snapshot, writes local mutations back in
// order, and reloads whenever another client changes something.
//
// Reloads replace the project list wholesale. A reload that completes before
// a queued local write reaches the service overwrites that optimistic change
// until the write's own change notification triggers the next reload.
package syncagent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/remote"
	"github.com/alexanderramin/pmdash/internal/store"
)

// ErrAlreadyRunning is returned when Run is called on an agent that already
// has an owner.
var ErrAlreadyRunning = errors.New("sync agent already running")

const defaultWriteTimeout = 15 * time.Second

type Options struct {
	Tenant string
	// Tables to subscribe to. Empty means every table.
	Tables       []domain.EntityType
	Notifier     Notifier
	Observer     Observer
	Logger       *slog.Logger
	WriteTimeout time.Duration
}

// Agent owns the remote side of one ProjectStore. It is the store's Sink.
type Agent struct {
	store        *store.ProjectStore
	remote       remote.Service
	tenant       string
	tables       []domain.EntityType
	notifier     Notifier
	observer     Observer
	logger       *slog.Logger
	writeTimeout time.Duration

	running atomic.Bool

	// Fetches are numbered when issued; a response older than the last one
	// applied is dropped.
	fetchSeq   atomic.Uint64
	applyMu    sync.Mutex
	appliedSeq uint64

	// stopping is set by Run before it waits on reloads; no reload may be
	// added after that.
	reloadMu  sync.Mutex
	reloading bool
	pending   bool
	stopping  bool
	reloads   sync.WaitGroup

	queueMu     sync.Mutex
	queueCond   *sync.Cond
	queue       []store.Mutation
	inflight    bool
	closed      bool
	writerOnce  sync.Once
	writerDone  chan struct{}
	writeFailed atomic.Uint64
}

var _ store.Sink = (*Agent)(nil)

// New creates an agent and installs it as the store's sink.
func New(s *store.ProjectStore, svc remote.Service, opts Options) *Agent {
	a := &Agent{
		store:        s,
		remote:       svc,
		tenant:       opts.Tenant,
		tables:       opts.Tables,
		notifier:     opts.Notifier,
		observer:     opts.Observer,
		logger:       opts.Logger,
		writeTimeout: opts.WriteTimeout,
		writerDone:   make(chan struct{}),
	}
	if len(a.tables) == 0 {
		a.tables = domain.AllTables()
	}
	if a.notifier == nil {
		a.notifier = FuncNotifier(func(Toast) {})
	}
	if a.observer == nil {
		a.observer = NoopObserver{}
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	if a.writeTimeout <= 0 {
		a.writeTimeout = defaultWriteTimeout
	}
	a.queueCond = sync.NewCond(&a.queueMu)
	s.SetSink(a)
	return a
}

// FetchRemoteState loads every project of the tenant and replaces the
// store's list with it. On failure the user is notified and the current
// snapshot stays in place.
func (a *Agent) FetchRemoteState(ctx context.Context) error {
	seq := a.fetchSeq.Add(1)
	start := time.Now()

	projects, err := a.remote.GetAllProjects(ctx, a.tenant)
	if err != nil {
		a.observe(ctx, "fetch", start, err, map[string]any{"request_id": seq})
		a.toast(LevelError, "Sync failed", fmt.Sprintf("Could not load projects: %v", err))
		return fmt.Errorf("fetch remote state: %w", err)
	}

	a.applyMu.Lock()
	if seq < a.appliedSeq {
		a.applyMu.Unlock()
		a.logger.Debug("discarding stale fetch", "request_id", seq)
		a.observe(ctx, "fetch", start, nil, map[string]any{"request_id": seq, "stale": true})
		return nil
	}
	a.appliedSeq = seq
	a.store.Replace(projects)
	a.applyMu.Unlock()

	a.observe(ctx, "fetch", start, nil, map[string]any{"request_id": seq, "projects": len(projects)})
	return nil
}

// SubscribeToChanges opens the change feed. Every notification schedules a
// full reload; notifications that arrive while a reload is running collapse
// into one follow-up reload. The caller owns the returned subscription.
func (a *Agent) SubscribeToChanges(ctx context.Context) (remote.Subscription, error) {
	start := time.Now()
	sub, err := a.remote.Subscribe(ctx, a.tenant, a.tables, func(c remote.Change) {
		a.logger.Debug("remote change", "table", c.Table, "op", c.Op, "project_id", c.ProjectID)
		a.requestReload(ctx)
	})
	a.observe(ctx, "subscribe", start, err, map[string]any{"tables": len(a.tables)})
	if err != nil {
		a.toast(LevelError, "Live updates unavailable", fmt.Sprintf("Could not subscribe to changes: %v", err))
		return nil, fmt.Errorf("subscribe to changes: %w", err)
	}
	return sub, nil
}

func (a *Agent) requestReload(ctx context.Context) {
	a.reloadMu.Lock()
	if a.stopping || ctx.Err() != nil {
		a.reloadMu.Unlock()
		return
	}
	if a.reloading {
		a.pending = true
		a.reloadMu.Unlock()
		return
	}
	a.reloading = true
	a.reloads.Add(1)
	a.reloadMu.Unlock()

	go func() {
		defer a.reloads.Done()
		for {
			if ctx.Err() == nil {
				_ = a.FetchRemoteState(ctx)
			}
			a.reloadMu.Lock()
			if !a.pending || ctx.Err() != nil {
				a.reloading = false
				a.pending = false
				a.reloadMu.Unlock()
				return
			}
			a.pending = false
			a.reloadMu.Unlock()
		}
	}()
}

// Run owns the sync lifecycle until ctx ends: initial fetch, change
// subscription and the write loop. On exit the subscription is closed and
// queued writes are flushed.
func (a *Agent) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer a.running.Store(false)

	a.reloadMu.Lock()
	a.stopping = false
	a.reloadMu.Unlock()

	a.startWriter()

	// Failures were already reported; keep serving the local snapshot.
	_ = a.FetchRemoteState(ctx)
	sub, err := a.SubscribeToChanges(ctx)
	if err != nil {
		a.logger.Warn("running without live updates", "error", err)
	}

	<-ctx.Done()

	if sub != nil {
		if err := sub.Close(); err != nil {
			a.logger.Warn("closing subscription", "error", err)
		}
	}
	a.reloadMu.Lock()
	a.stopping = true
	a.reloadMu.Unlock()
	a.reloads.Wait()
	a.Close()
	return nil
}

// Record queues a mutation for the remote writer. It never blocks on I/O.
func (a *Agent) Record(m store.Mutation) {
	a.queueMu.Lock()
	defer a.queueMu.Unlock()
	if a.closed {
		a.logger.Warn("mutation recorded after close", "kind", m.Kind, "entity_id", m.EntityID)
		return
	}
	a.queue = append(a.queue, m)
	a.queueCond.Broadcast()
}

// Pending reports queued plus in-flight writes.
func (a *Agent) Pending() int {
	a.queueMu.Lock()
	defer a.queueMu.Unlock()
	n := len(a.queue)
	if a.inflight {
		n++
	}
	return n
}

// FailedWrites counts remote writes that failed since the agent started.
func (a *Agent) FailedWrites() uint64 {
	return a.writeFailed.Load()
}

// Drain starts the writer if needed and waits until every queued write has
// been attempted or ctx ends.
func (a *Agent) Drain(ctx context.Context) error {
	a.startWriter()

	done := make(chan struct{})
	go func() {
		a.queueMu.Lock()
		for len(a.queue) > 0 || a.inflight {
			a.queueCond.Wait()
		}
		a.queueMu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain: %d writes pending: %w", a.Pending(), ctx.Err())
	}
}

// Close stops accepting mutations, lets the writer finish the queue and
// waits for it.
func (a *Agent) Close() {
	a.startWriter()
	a.queueMu.Lock()
	a.closed = true
	a.queueCond.Broadcast()
	a.queueMu.Unlock()
	<-a.writerDone
}

func (a *Agent) startWriter() {
	a.writerOnce.Do(func() {
		go a.writeLoop()
	})
}

func (a *Agent) writeLoop() {
	defer close(a.writerDone)
	for {
		a.queueMu.Lock()
		for len(a.queue) == 0 && !a.closed {
			a.queueCond.Wait()
		}
		if len(a.queue) == 0 {
			a.queueMu.Unlock()
			return
		}
		m := a.queue[0]
		a.queue[0] = store.Mutation{}
		a.queue = a.queue[1:]
		a.inflight = true
		a.queueMu.Unlock()

		a.write(m)

		a.queueMu.Lock()
		a.inflight = false
		a.queueCond.Broadcast()
		a.queueMu.Unlock()
	}
}

// write sends one mutation. Failures are reported and never rolled back
// locally.
func (a *Agent) write(m store.Mutation) {
	ctx, cancel := context.WithTimeout(context.Background(), a.writeTimeout)
	defer cancel()
	start := time.Now()

	var err error
	switch m.Op {
	case store.OpDelete:
		err = a.remote.DeleteEntity(ctx, a.tenant, m.ProjectID, m.Kind, m.EntityID)
	default:
		err = a.remote.UpsertEntity(ctx, a.tenant, m.ProjectID, m.Kind, m.Entity)
	}

	a.observe(ctx, "write", start, err, map[string]any{
		"mutation":   string(m.Op),
		"kind":       string(m.Kind),
		"project_id": m.ProjectID,
		"entity_id":  m.EntityID,
	})
	if err != nil {
		a.writeFailed.Add(1)
		a.toast(LevelError, "Save failed", fmt.Sprintf("Could not save %s %s: %v", m.Kind, m.EntityID, err))
	}
}

func (a *Agent) toast(level Level, title, msg string) {
	a.notifier.Notify(Toast{Level: level, Title: title, Message: msg, At: time.Now()})
}

func (a *Agent) observe(ctx context.Context, name string, start time.Time, err error, fields map[string]any) {
	a.observer.ObserveSync(ctx, SyncEvent{
		Name:      name,
		Duration:  time.Since(start),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: start,
	})
}
