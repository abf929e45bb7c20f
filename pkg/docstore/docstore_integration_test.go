//go:build integration

package docstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/illmade-knight/go-productcache/pkg/docstore"
	"github.com/illmade-knight/go-productcache/pkg/product"
)

func TestDocStore_Integration(t *testing.T) {
	emulatorHost := os.Getenv("FIRESTORE_EMULATOR_HOST")
	if emulatorHost == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set; skipping Firestore integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	const projectID = "test-project"
	client, err := firestore.NewClient(ctx, projectID,
		option.WithEndpoint(emulatorHost),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := docstore.New(&docstore.Config{CollectionName: "product-snapshots"}, client, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.DeleteCachedProducts(ctx))

	items := []product.Product{
		{ID: 1, Title: "Backpack", Price: 109.95, Category: "men's clothing", Image: "https://example.com/1.png", Rating: product.Rating{Rate: 3.9, Count: 120}},
		{ID: 2, Title: "T-Shirt", Price: 22.3, Category: "men's clothing", Image: "https://example.com/2.png", Rating: product.Rating{Rate: 4.1, Count: 259}},
	}
	timestamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Retrieve on empty store", func(t *testing.T) {
		cached, err := store.Retrieve(ctx)
		require.NoError(t, err)
		assert.Nil(t, cached)
	})

	t.Run("Insert and Retrieve", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, items, timestamp))

		cached, err := store.Retrieve(ctx)
		require.NoError(t, err)
		require.NotNil(t, cached)
		assert.Equal(t, items, cached.Products)
		assert.True(t, timestamp.Equal(cached.Timestamp))
	})

	t.Run("Insert supersedes", func(t *testing.T) {
		replacement := []product.Product{{ID: 9, Title: "Monitor", Price: 999.99, Category: "electronics", Image: "https://example.com/9.png"}}
		require.NoError(t, store.Insert(ctx, replacement, timestamp.Add(time.Hour)))

		cached, err := store.Retrieve(ctx)
		require.NoError(t, err)
		require.NotNil(t, cached)
		assert.Equal(t, replacement, cached.Products)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.DeleteCachedProducts(ctx))

		cached, err := store.Retrieve(ctx)
		require.NoError(t, err)
		assert.Nil(t, cached)

		require.NoError(t, store.DeleteCachedProducts(ctx), "deleting an empty store must succeed")
	})
}
