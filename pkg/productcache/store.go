package productcache

import (
	"context"
	"time"

	"github.com/illmade-knight/go-productcache/pkg/product"
)

// CachedProducts is the single snapshot a Store holds: the full product
// collection plus the instant it was written.
type CachedProducts struct {
	Products  []product.Product
	Timestamp time.Time
}

// Store is the capability a persistence backend must provide. A Store holds
// at most one snapshot at a time; Insert supersedes whatever was there.
//
// Retrieve returns (nil, nil) when the store is empty, the snapshot on a hit,
// and a non-nil error only for genuine backend failures.
type Store interface {
	// DeleteCachedProducts removes the current snapshot. Deleting an empty
	// store is a success.
	DeleteCachedProducts(ctx context.Context) error
	// Insert writes a new snapshot with the given write timestamp.
	Insert(ctx context.Context, products []product.Product, timestamp time.Time) error
	// Retrieve reads the current snapshot, if any.
	Retrieve(ctx context.Context) (*CachedProducts, error)
}
