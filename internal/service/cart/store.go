// Package cart keeps the visitor's cart as a single JSON record in durable
// storage and tells subscribers whenever it changes.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repository/kv"
)

// StorageKey is the well-known key the cart record lives under.
const StorageKey = "cart"

// ErrWriteUnavailable is returned when the durable write of a mutation fails.
// The stored cart is left as it was and no notification is sent.
var ErrWriteUnavailable = errors.New("cart storage unavailable")

// ErrInvalidItem is returned by Add for a product that cannot be stored,
// such as one with a negative price.
var ErrInvalidItem = errors.New("invalid cart item")

// Store owns one visitor's cart. Create one per session and share it with
// every consumer of that session.
type Store struct {
	repo   kv.Repository
	logger *log.Logger

	mu        sync.Mutex
	listeners listeners
}

// Summary is a consistent view of the cart taken from a single read.
type Summary struct {
	Items []domain.CartItem
	Count int
	Total decimal.Decimal
}

func New(repo kv.Repository, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.Writer(), "[cart] ", log.LstdFlags|log.LUTC)
	}
	return &Store{repo: repo, logger: logger}
}

// Read returns the cart in insertion order. A missing or unreadable record
// reads as an empty cart.
func (s *Store) Read(ctx context.Context) []domain.CartItem {
	items := s.load(ctx)
	if items == nil {
		return []domain.CartItem{}
	}
	return items
}

// Add puts one unit of ref into the cart. An existing line only has its
// quantity bumped; its name, price and duration are kept from the first add.
func (s *Store) Add(ctx context.Context, ref domain.ProductRef) error {
	if ref.Price.IsNegative() {
		return fmt.Errorf("%w: item %d: negative price %s", ErrInvalidItem, ref.ID, ref.Price)
	}
	return s.mutate(ctx, func(items []domain.CartItem) ([]domain.CartItem, bool) {
		if i := indexOf(items, ref.ID); i >= 0 {
			items[i].Quantity++
			return items, true
		}
		return append(items, domain.CartItem{
			ID:       ref.ID,
			Name:     ref.Name,
			Price:    ref.Price,
			Duration: ref.Duration,
			Quantity: 1,
		}), true
	})
}

// Remove drops the line with the given id. The cart is written and
// subscribers are notified even when no such line exists.
func (s *Store) Remove(ctx context.Context, id int) error {
	return s.mutate(ctx, func(items []domain.CartItem) ([]domain.CartItem, bool) {
		return without(items, id), true
	})
}

// SetQuantity sets the quantity of an existing line; quantity <= 0 removes
// it. An unknown id is ignored: nothing is written and nobody is notified.
func (s *Store) SetQuantity(ctx context.Context, id, quantity int) error {
	return s.mutate(ctx, func(items []domain.CartItem) ([]domain.CartItem, bool) {
		i := indexOf(items, id)
		if i < 0 {
			return items, false
		}
		if quantity <= 0 {
			return without(items, id), true
		}
		items[i].Quantity = quantity
		return items, true
	})
}

// Clear deletes the stored record.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	err := s.repo.Delete(ctx, StorageKey)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteUnavailable, err)
	}
	s.listeners.notify()
	return nil
}

// Total is the sum of price * quantity over all lines.
func (s *Store) Total(ctx context.Context) decimal.Decimal {
	return total(s.load(ctx))
}

// Count is the sum of quantities over all lines.
func (s *Store) Count(ctx context.Context) int {
	return count(s.load(ctx))
}

// Summary reads the cart once and derives count and total from that read.
func (s *Store) Summary(ctx context.Context) Summary {
	items := s.Read(ctx)
	return Summary{Items: items, Count: count(items), Total: total(items)}
}

// Subscribe registers fn to be called after every change to the cart.
// Calls are synchronous, in registration order, on the mutating goroutine.
// The returned func unregisters fn and may be called more than once.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	return s.listeners.add(fn)
}

// Subscribers reports how many listeners are currently registered.
func (s *Store) Subscribers() int {
	return s.listeners.len()
}

// mutate runs a read-modify-write under the store lock. fn reports whether
// anything should be written. A failed read aborts before fn runs so the
// stored cart is never replaced from a partial view. Listeners run after the
// lock is released so they can read the cart back.
func (s *Store) mutate(ctx context.Context, fn func([]domain.CartItem) ([]domain.CartItem, bool)) error {
	s.mu.Lock()
	items, err := s.fetch(ctx)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: read cart: %w", ErrWriteUnavailable, err)
	}
	next, changed := fn(items)
	if !changed {
		s.mu.Unlock()
		return nil
	}
	err = s.save(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.listeners.notify()
	return nil
}

// load is fetch for readers: a storage error reads as an empty cart.
func (s *Store) load(ctx context.Context) []domain.CartItem {
	items, err := s.fetch(ctx)
	if err != nil {
		s.logger.Printf("read cart: %v", err)
		return nil
	}
	return items
}

// fetch returns the stored cart. An absent or malformed record is an empty
// cart; only storage failures are reported.
func (s *Store) fetch(ctx context.Context) ([]domain.CartItem, error) {
	raw, err := s.repo.Get(ctx, StorageKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	items, err := decode(raw)
	if err != nil {
		s.logger.Printf("discarding stored cart: %v", err)
		return nil, nil
	}
	return items, nil
}

func (s *Store) save(ctx context.Context, items []domain.CartItem) error {
	raw, err := encode(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.repo.Set(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteUnavailable, err)
	}
	return nil
}

func indexOf(items []domain.CartItem, id int) int {
	return slices.IndexFunc(items, func(it domain.CartItem) bool { return it.ID == id })
}

func without(items []domain.CartItem, id int) []domain.CartItem {
	return slices.DeleteFunc(items, func(it domain.CartItem) bool { return it.ID == id })
}

func total(items []domain.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

func count(items []domain.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
