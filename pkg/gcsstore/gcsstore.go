// Package gcsstore persists the product snapshot as a single JSON object in
// a Google Cloud Storage bucket.
package gcsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-productcache/pkg/product"
	"github.com/illmade-knight/go-productcache/pkg/productcache"
)

// DefaultObjectName is used when Config.ObjectName is not set.
const DefaultObjectName = "productcache/snapshot.json"

// Config holds the bucket and object location of the snapshot.
type Config struct {
	BucketName string
	// ObjectName names the snapshot object; defaults to DefaultObjectName.
	ObjectName string
}

// Store is a GCS-backed productcache.Store.
type Store struct {
	object GCSObjectHandle
	logger zerolog.Logger
}

// envelope is the JSON body of the snapshot object.
type envelope struct {
	Products  []product.Product `json:"products"`
	Timestamp time.Time         `json:"timestamp"`
}

// New creates a Store over an abstracted GCS client. Wrap a concrete
// *storage.Client with NewGCSClientAdapter.
func New(cfg *Config, client GCSClient, logger zerolog.Logger) (*Store, error) {
	if client == nil {
		return nil, errors.New("GCS client cannot be nil")
	}
	if cfg == nil || cfg.BucketName == "" {
		return nil, errors.New("GCS bucket name is required")
	}
	objectName := cfg.ObjectName
	if objectName == "" {
		objectName = DefaultObjectName
	}
	return &Store{
		object: client.Bucket(cfg.BucketName).Object(objectName),
		logger: logger.With().Str("component", "GCSStore").Str("bucket", cfg.BucketName).Str("object", objectName).Logger(),
	}, nil
}

// DeleteCachedProducts removes the snapshot object. A missing object is a
// success.
func (s *Store) DeleteCachedProducts(ctx context.Context) error {
	err := s.object.Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		s.logger.Error().Err(err).Msg("Failed to delete snapshot object.")
		return fmt.Errorf("failed to delete snapshot object: %w", err)
	}
	return nil
}

// Insert replaces the snapshot object. GCS object writes are atomic: the new
// object only becomes visible once the writer closes successfully.
func (s *Store) Insert(ctx context.Context, products []product.Product, timestamp time.Time) error {
	w := s.object.NewWriter(ctx)
	if err := json.NewEncoder(w).Encode(envelope{Products: products, Timestamp: timestamp}); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to finalize snapshot upload.")
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}
	s.logger.Debug().Int("product_count", len(products)).Time("cached_at", timestamp).Msg("Snapshot uploaded.")
	return nil
}

// Retrieve reads the snapshot object, mapping a missing object to an empty
// store.
func (s *Store) Retrieve(ctx context.Context) (*productcache.CachedProducts, error) {
	r, err := s.object.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, nil
		}
		s.logger.Error().Err(err).Msg("Failed to open snapshot object.")
		return nil, fmt.Errorf("failed to open snapshot object: %w", err)
	}
	defer func() { _ = r.Close() }()

	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		s.logger.Error().Err(err).Msg("Snapshot object is corrupt.")
		return nil, fmt.Errorf("failed to decode snapshot object: %w", err)
	}
	return &productcache.CachedProducts{Products: env.Products, Timestamp: env.Timestamp}, nil
}
