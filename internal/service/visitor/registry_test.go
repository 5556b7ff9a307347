package visitor

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storefront/internal/domain"
	"storefront/internal/repository/kv"
)

func newRegistry(base kv.Repository) (*Registry, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry(base, time.Hour, log.New(io.Discard, "", 0))
	r.now = func() time.Time { return now }
	return r, &now
}

func TestCart_SameStorePerVisitor(t *testing.T) {
	r, _ := newRegistry(kv.NewMemory())

	a := r.Cart("a")
	assert.Same(t, a, r.Cart("a"))
	assert.NotSame(t, a, r.Cart("b"))
	assert.Equal(t, 2, r.Len())
}

func TestCart_VisitorsAreIsolated(t *testing.T) {
	ctx := context.Background()
	base := kv.NewMemory()
	r, _ := newRegistry(base)

	require.NoError(t, r.Cart("a").Add(ctx, domain.ProductRef{ID: 1, Name: "A", Price: decimal.NewFromInt(5)}))
	assert.Equal(t, 1, r.Cart("a").Count(ctx))
	assert.Zero(t, r.Cart("b").Count(ctx))

	raw, err := base.Get(ctx, "visitor:a:cart")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"A","price":5,"duration":"","quantity":1}]`, string(raw))

	require.NoError(t, r.Storage("b").Set(ctx, "admin_token", []byte("x")))
	_, err = r.Storage("a").Get(ctx, "admin_token")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSweep_DropsIdleStoresWithoutSubscribers(t *testing.T) {
	ctx := context.Background()
	r, now := newRegistry(kv.NewMemory())

	require.NoError(t, r.Cart("idle").Add(ctx, domain.ProductRef{ID: 1, Price: decimal.NewFromInt(1)}))
	unsubscribe := r.Cart("watched").Subscribe(func() {})
	*now = now.Add(30 * time.Minute)
	r.Cart("recent")

	*now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 2, r.Len())

	unsubscribe()
	*now = now.Add(2 * time.Hour)
	assert.Equal(t, 2, r.Sweep())
	assert.Zero(t, r.Len())

	assert.Equal(t, 1, r.Cart("idle").Count(ctx), "swept store reloads from storage")
}

func TestRun_StopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRegistry(kv.NewMemory(), time.Nanosecond, log.New(io.Discard, "", 0))
	r.Cart("a")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}
