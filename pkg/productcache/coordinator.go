// Package productcache coordinates a single-snapshot product cache over a
// pluggable persistence backend. The Coordinator owns the staleness decision
// and the asynchrony; the Store owns the persisted state.
package productcache

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-productcache/pkg/product"
)

// Coordinator orchestrates save, load, and validate operations against a
// Store. Each public operation runs its backend calls sequentially on its own
// goroutine and delivers the outcome through a completion callback, invoked
// at most once, on an arbitrary goroutine.
//
// The Coordinator performs no locking beyond the closed flag: each operation
// chain touches only its own locals, the Store, and the Clock.
type Coordinator struct {
	store  Store
	policy CachePolicy
	clock  Clock
	logger zerolog.Logger
	closed atomic.Bool
}

// NewCoordinator wires a Coordinator to its backend. A nil clock defaults to
// the system clock.
func NewCoordinator(store Store, policy CachePolicy, clock Clock, logger zerolog.Logger) *Coordinator {
	if clock == nil {
		clock = SystemClock()
	}
	return &Coordinator{
		store:  store,
		policy: policy,
		clock:  clock,
		logger: logger.With().Str("component", "CacheCoordinator").Logger(),
	}
}

// Close marks the coordinator as released. In-flight operation chains check
// the flag at each completion point: a delete that finishes after Close does
// not issue its insert, and no completion callback fires. The underlying
// Store calls themselves are not aborted.
func (c *Coordinator) Close() {
	c.closed.Store(true)
}

// Save replaces the cached snapshot with products, timestamped with the
// coordinator's clock. The old snapshot is deleted first; if the delete
// fails, its error is the save result and no insert is attempted. Otherwise
// the insert's outcome is the save result. Store errors are forwarded to the
// completion verbatim. A nil completion discards the result.
func (c *Coordinator) Save(ctx context.Context, products []product.Product, completion func(error)) {
	go func() {
		if err := c.store.DeleteCachedProducts(ctx); err != nil {
			c.logger.Error().Err(err).Str("op", "delete").Msg("Failed to clear cache during save.")
			c.deliverSave(completion, err)
			return
		}
		if c.closed.Load() {
			return
		}
		err := c.store.Insert(ctx, products, c.clock.Now())
		if err != nil {
			c.logger.Error().Err(err).Str("op", "insert").Msg("Failed to insert snapshot during save.")
		}
		c.deliverSave(completion, err)
	}()
}

// Load reads the cached snapshot and applies the staleness policy. A backend
// failure is forwarded verbatim. A stale or absent snapshot is not an error:
// it loads as an empty, non-nil slice.
func (c *Coordinator) Load(ctx context.Context, completion func([]product.Product, error)) {
	go func() {
		cached, err := c.store.Retrieve(ctx)
		if c.closed.Load() {
			return
		}
		switch {
		case err != nil:
			c.logger.Error().Err(err).Str("op", "retrieve").Msg("Failed to retrieve snapshot during load.")
			c.deliverLoad(completion, nil, err)
		case cached != nil && c.policy.Validate(cached.Timestamp, c.clock.Now()):
			c.deliverLoad(completion, cached.Products, nil)
		default:
			c.deliverLoad(completion, []product.Product{}, nil)
		}
	}()
}

// ValidateCache purges the backend when its snapshot is stale or cannot be
// read. It is fire-and-forget: nothing is reported to the caller, and both
// the triggering failure and any delete failure are swallowed. Keeping the
// purge off the load path means readers never pay for, or observe, cleanup.
func (c *Coordinator) ValidateCache(ctx context.Context) {
	go func() {
		cached, err := c.store.Retrieve(ctx)
		if c.closed.Load() {
			return
		}
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Msg("Snapshot unreadable, purging cache.")
			c.purge(ctx)
		case cached != nil && !c.policy.Validate(cached.Timestamp, c.clock.Now()):
			c.logger.Debug().Time("cached_at", cached.Timestamp).Msg("Snapshot expired, purging cache.")
			c.purge(ctx)
		}
	}()
}

func (c *Coordinator) purge(ctx context.Context) {
	if err := c.store.DeleteCachedProducts(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Best-effort cache purge failed.")
	}
}

func (c *Coordinator) deliverSave(completion func(error), err error) {
	if c.closed.Load() || completion == nil {
		return
	}
	completion(err)
}

func (c *Coordinator) deliverLoad(completion func([]product.Product, error), products []product.Product, err error) {
	if c.closed.Load() || completion == nil {
		return
	}
	completion(products, err)
}
