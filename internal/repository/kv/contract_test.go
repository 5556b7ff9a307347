package kv_test

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/repository/kv"
)

// runContract checks the behavior every Repository backend must share.
func runContract(t *testing.T, repo kv.Repository) {
	t.Helper()

	t.Run("missing key: not found", func(t *testing.T) {
		_, err := repo.Get(context.Background(), gofakeit.UUID())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("set then get: ok", func(t *testing.T) {
		ctx := context.Background()
		key := gofakeit.UUID()
		value := []byte(gofakeit.LetterN(32))

		require.NoError(t, repo.Set(ctx, key, value))

		got, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("set overwrites: ok", func(t *testing.T) {
		ctx := context.Background()
		key := gofakeit.UUID()

		require.NoError(t, repo.Set(ctx, key, []byte(`[]`)))
		require.NoError(t, repo.Set(ctx, key, []byte(`[{"id":1}]`)))

		got, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `[{"id":1}]`, string(got))
	})

	t.Run("delete: ok", func(t *testing.T) {
		ctx := context.Background()
		key := gofakeit.UUID()

		require.NoError(t, repo.Set(ctx, key, []byte("x")))
		require.NoError(t, repo.Delete(ctx, key))

		_, err := repo.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete missing key: ok", func(t *testing.T) {
		assert.NoError(t, repo.Delete(context.Background(), gofakeit.UUID()))
	})
}
