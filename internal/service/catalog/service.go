// Package catalog serves the public product list for the landing page.
package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"storefront/internal/domain"
)

// fetchTimeout bounds an upstream fetch that no longer follows any caller's context.
const fetchTimeout = 15 * time.Second

// Source lists every product known to the admin API.
type Source interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

type Service struct {
	source Source
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time

	group singleflight.Group

	mu         sync.RWMutex
	cached     []domain.Product
	fetchedAt  time.Time
	generation uint64
}

// New caches the active products of source for ttl. A zero ttl disables caching.
func New(source Source, ttl time.Duration, logger *log.Logger) *Service {
	return &Service{source: source, ttl: ttl, logger: logger, now: time.Now}
}

// List returns the active products in the order the API gives them.
// Concurrent callers share one upstream fetch. When a refresh fails a stale
// list is served if there is one.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	cached, fresh := s.cached, s.cached != nil && s.now().Sub(s.fetchedAt) < s.ttl
	s.mu.RUnlock()
	if fresh {
		return cached, nil
	}

	// The shared fetch outlives any single caller; each caller only waits
	// as long as its own context allows.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("products", func() (any, error) {
		return s.fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if cached != nil {
				s.logger.Printf("refresh catalog, serving stale list: %v", res.Err)
				return cached, nil
			}
			return nil, res.Err
		}
		return res.Val.([]domain.Product), nil
	}
}

// fetch loads the active products and caches them unless Invalidate ran
// while the request was in flight.
func (s *Service) fetch(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	all, err := s.source.Products(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if p.IsActive {
			active = append(active, p)
		}
	}

	s.mu.Lock()
	if s.generation == gen {
		s.cached, s.fetchedAt = active, s.now()
	}
	s.mu.Unlock()
	return active, nil
}

// Get returns one active product by id.
func (s *Service) Get(ctx context.Context, id int) (*domain.Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			p := products[i]
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Invalidate drops the cached list so the next List refetches. The admin
// console calls it after product edits.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.generation++
	s.mu.Unlock()
}
