// Package docstore persists the product snapshot as a single Firestore
// document. The client's lifecycle is managed by the caller, matching how the
// rest of the codebase injects Google Cloud clients.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/illmade-knight/go-productcache/pkg/product"
	"github.com/illmade-knight/go-productcache/pkg/productcache"
)

// DefaultDocumentID names the snapshot document when Config.DocumentID is not set.
const DefaultDocumentID = "current"

// Config holds configuration for the Firestore-backed store.
type Config struct {
	CollectionName string
	// DocumentID names the single snapshot document; defaults to DefaultDocumentID.
	DocumentID string
}

// Store is a Firestore-backed productcache.Store.
type Store struct {
	client *firestore.Client
	doc    *firestore.DocumentRef
	logger zerolog.Logger
}

// document is the stored Firestore representation.
type document struct {
	Products []product.Product `firestore:"products"`
	CachedAt time.Time         `firestore:"cachedAt"`
}

// New creates a Store over an existing Firestore client.
func New(cfg *Config, client *firestore.Client, logger zerolog.Logger) (*Store, error) {
	if client == nil {
		return nil, errors.New("firestore client cannot be nil")
	}
	if cfg == nil || cfg.CollectionName == "" {
		return nil, errors.New("firestore collection name is required")
	}
	docID := cfg.DocumentID
	if docID == "" {
		docID = DefaultDocumentID
	}
	return &Store{
		client: client,
		doc:    client.Collection(cfg.CollectionName).Doc(docID),
		logger: logger.With().Str("component", "DocStore").Str("collection", cfg.CollectionName).Logger(),
	}, nil
}

// Close is a no-op; the injected Firestore client is closed by its owner.
func (s *Store) Close() error {
	return nil
}

// DeleteCachedProducts removes the snapshot document. Firestore deletes of a
// missing document succeed, which is exactly the contract we need.
func (s *Store) DeleteCachedProducts(ctx context.Context) error {
	if _, err := s.doc.Delete(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete snapshot document.")
		return fmt.Errorf("firestore delete: %w", err)
	}
	return nil
}

// Insert replaces the snapshot document.
func (s *Store) Insert(ctx context.Context, products []product.Product, timestamp time.Time) error {
	if _, err := s.doc.Set(ctx, document{Products: products, CachedAt: timestamp}); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write snapshot document.")
		return fmt.Errorf("firestore set: %w", err)
	}
	s.logger.Debug().Int("product_count", len(products)).Msg("Snapshot written to Firestore.")
	return nil
}

// Retrieve reads the snapshot document, mapping NotFound to an empty store.
func (s *Store) Retrieve(ctx context.Context) (*productcache.CachedProducts, error) {
	docSnap, err := s.doc.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		s.logger.Error().Err(err).Msg("Failed to get snapshot document.")
		return nil, fmt.Errorf("firestore get: %w", err)
	}

	var stored document
	if err := docSnap.DataTo(&stored); err != nil {
		s.logger.Error().Err(err).Msg("Failed to map snapshot document data.")
		return nil, fmt.Errorf("firestore DataTo: %w", err)
	}
	return &productcache.CachedProducts{Products: stored.Products, Timestamp: stored.CachedAt}, nil
}
