// Package visitor ties anonymous visitors to their own cart and storage.
package visitor

import (
	"context"
	"log"
	"sync"
	"time"

	"storefront/internal/repository/kv"
	"storefront/internal/service/cart"
)

type entry struct {
	storage  kv.Repository
	cart     *cart.Store
	lastSeen time.Time
}

// Registry hands out one cart Store per visitor so that every request of a
// visitor, and any event stream it holds open, shares the same listeners.
type Registry struct {
	base   kv.Repository
	logger *log.Logger
	idle   time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry namespaces base per visitor. Stores unused for idle and with
// no subscribers are dropped by Sweep; their data stays in base.
func NewRegistry(base kv.Repository, idle time.Duration, logger *log.Logger) *Registry {
	return &Registry{
		base:    base,
		logger:  logger,
		idle:    idle,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Cart returns the visitor's cart store, creating it on first use.
func (r *Registry) Cart(visitorID string) *cart.Store {
	return r.get(visitorID).cart
}

// Storage returns the visitor's namespaced durable storage.
func (r *Registry) Storage(visitorID string) kv.Repository {
	return r.get(visitorID).storage
}

func (r *Registry) get(visitorID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[visitorID]
	if !ok {
		storage := kv.WithPrefix(r.base, "visitor:"+visitorID)
		e = &entry{storage: storage, cart: cart.New(storage, r.logger)}
		r.entries[visitorID] = e
	}
	e.lastSeen = r.now()
	return e
}

// Len reports how many visitors currently have a live store.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops idle stores and returns how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) && e.cart.Subscribers() == 0 {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Printf("visitor sweep: dropped %d idle stores", n)
			}
		}
	}
}
