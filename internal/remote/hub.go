package remote

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alexanderramin/pmdash/internal/domain"
)

const subscriberBuffer = 64

// Hub fans changes out to subscribers. Each subscriber has its own goroutine
// and buffer so a slow consumer never blocks a writer.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{subs: make(map[int]*subscriber), logger: logger}
}

type subscriber struct {
	tenant string
	tables map[domain.EntityType]bool
	ch     chan Change
	done   chan struct{}
	once   sync.Once
	unsub  func()
}

func (s *subscriber) wants(c Change) bool {
	if c.Tenant != s.tenant {
		return false
	}
	return len(s.tables) == 0 || s.tables[c.Table]
}

func (s *subscriber) Close() error {
	s.once.Do(func() {
		s.unsub()
		close(s.done)
	})
	return nil
}

// Subscribe registers onChange for the tenant's tables; no tables means all.
// The subscription closes itself when ctx ends.
func (h *Hub) Subscribe(ctx context.Context, tenant string, tables []domain.EntityType, onChange func(Change)) Subscription {
	sub := &subscriber{
		tenant: tenant,
		tables: make(map[domain.EntityType]bool, len(tables)),
		ch:     make(chan Change, subscriberBuffer),
		done:   make(chan struct{}),
	}
	for _, t := range tables {
		sub.tables[t] = true
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	sub.unsub = func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}

	go func() {
		for {
			select {
			case <-sub.done:
				return
			case <-ctx.Done():
				sub.Close()
				return
			case c := <-sub.ch:
				onChange(c)
			}
		}
	}()
	return sub
}

// Publish delivers c to every matching subscriber. When a subscriber's
// buffer is full the change is dropped: the buffer already holds pending
// notifications, each of which triggers a full reload.
func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if !sub.wants(c) {
			continue
		}
		select {
		case sub.ch <- c:
		default:
			h.logger.Debug("change dropped for slow subscriber", "tenant", c.Tenant, "table", c.Table)
		}
	}
}

// Len reports the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
