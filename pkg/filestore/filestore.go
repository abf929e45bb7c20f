// Package filestore persists the product snapshot as a single JSON file on
// disk. Writes are atomic: the snapshot is written to a temp file in the same
// directory and renamed into place, so readers never observe a partial write.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-productcache/pkg/product"
	"github.com/illmade-knight/go-productcache/pkg/productcache"
)

// Config holds the location of the snapshot file.
type Config struct {
	Path string
}

// Store is a file-backed productcache.Store.
type Store struct {
	path   string
	logger zerolog.Logger
}

// snapshot is the on-disk representation.
type snapshot struct {
	Products  []product.Product `json:"products"`
	Timestamp time.Time         `json:"timestamp"`
}

// New creates a file store, ensuring the parent directory exists.
func New(cfg *Config, logger zerolog.Logger) (*Store, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, errors.New("snapshot file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Store{
		path:   cfg.Path,
		logger: logger.With().Str("component", "FileStore").Str("path", cfg.Path).Logger(),
	}, nil
}

// DeleteCachedProducts removes the snapshot file. A missing file is a success.
func (s *Store) DeleteCachedProducts(_ context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error().Err(err).Msg("Failed to delete snapshot file.")
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}

// Insert writes the snapshot, replacing any previous one.
func (s *Store) Insert(_ context.Context, products []product.Product, timestamp time.Time) error {
	data, err := json.Marshal(snapshot{Products: products, Timestamp: timestamp})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	// A unique temp name keeps concurrent writers from clobbering each
	// other's in-progress file; the rename decides who wins.
	tmp := fmt.Sprintf("%s.%s.tmp", s.path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}

	s.logger.Debug().Int("product_count", len(products)).Time("cached_at", timestamp).Msg("Snapshot written.")
	return nil
}

// Retrieve reads the snapshot, mapping a missing file to an empty store. A
// file that cannot be decoded is a retrieval failure, not an empty result.
func (s *Store) Retrieve(_ context.Context) (*productcache.CachedProducts, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		s.logger.Error().Err(err).Msg("Failed to read snapshot file.")
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Error().Err(err).Msg("Snapshot file is corrupt.")
		return nil, fmt.Errorf("failed to decode snapshot file: %w", err)
	}
	return &productcache.CachedProducts{Products: snap.Products, Timestamp: snap.Timestamp}, nil
}
