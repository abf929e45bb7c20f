//go:build integration

package redisstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-productcache/pkg/product"
	"github.com/illmade-knight/go-productcache/pkg/redisstore"
)

func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping Redis integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	store, err := redisstore.New(ctx, &redisstore.Config{
		Addr: addr,
		Key:  "productcache:integration-test",
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.DeleteCachedProducts(ctx))

	items := []product.Product{
		{ID: 1, Title: "Backpack", Price: 109.95, Category: "men's clothing", Image: "https://example.com/1.png", Rating: product.Rating{Rate: 3.9, Count: 120}},
		{ID: 2, Title: "T-Shirt", Price: 22.3, Category: "men's clothing", Image: "https://example.com/2.png", Rating: product.Rating{Rate: 4.1, Count: 259}},
	}
	timestamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Insert and Retrieve", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, items, timestamp))

		cached, err := store.Retrieve(ctx)
		require.NoError(t, err)
		require.NotNil(t, cached)
		assert.Equal(t, items, cached.Products)
		assert.True(t, timestamp.Equal(cached.Timestamp))
	})

	t.Run("Delete then Retrieve is empty", func(t *testing.T) {
		require.NoError(t, store.DeleteCachedProducts(ctx))

		cached, err := store.Retrieve(ctx)
		require.NoError(t, err)
		assert.Nil(t, cached)
	})

	t.Run("Delete on empty store succeeds", func(t *testing.T) {
		require.NoError(t, store.DeleteCachedProducts(ctx))
	})
}
