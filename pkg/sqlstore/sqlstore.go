// Package sqlstore persists the product snapshot in a SQLite database. The
// snapshot table carries a single-row check constraint so the store can never
// hold more than one snapshot; products live in their own table keyed by
// position to preserve collection order.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/illmade-knight/go-productcache/pkg/product"
	"github.com/illmade-knight/go-productcache/pkg/productcache"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshot (
  id        INTEGER PRIMARY KEY CHECK (id = 1),
  cached_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_products (
  position     INTEGER PRIMARY KEY,
  product_id   INTEGER NOT NULL,
  title        TEXT    NOT NULL,
  price        REAL    NOT NULL,
  description  TEXT    NOT NULL,
  category     TEXT    NOT NULL,
  image        TEXT    NOT NULL,
  rating_rate  REAL    NOT NULL,
  rating_count INTEGER NOT NULL
);`

// Store is a SQLite-backed productcache.Store.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

func toNanos(value time.Time) int64 {
	return value.UTC().UnixNano()
}

func fromNanos(value int64) time.Time {
	return time.Unix(0, value).UTC()
}

// Open opens (creating if necessary) the SQLite database at path and ensures
// the schema exists.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "SQLStore").Str("path", path).Logger(),
	}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DeleteCachedProducts removes the snapshot and its products in one
// transaction. An empty store deletes successfully.
func (s *Store) DeleteCachedProducts(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_products`); err != nil {
		return fmt.Errorf("failed to delete cached products: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot`); err != nil {
		return fmt.Errorf("failed to delete snapshot row: %w", err)
	}
	return tx.Commit()
}

// Insert replaces the snapshot atomically: the delete and the insert share a
// transaction, so a reader sees either the old snapshot or the new one.
func (s *Store) Insert(ctx context.Context, products []product.Product, timestamp time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_products`); err != nil {
		return fmt.Errorf("failed to clear cached products: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot`); err != nil {
		return fmt.Errorf("failed to clear snapshot row: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot (id, cached_at) VALUES (1, ?)`, toNanos(timestamp)); err != nil {
		return fmt.Errorf("failed to insert snapshot row: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_products (
		   position, product_id, title, price, description, category, image, rating_rate, rating_count
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare product insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for position, p := range products {
		if _, err := stmt.ExecContext(ctx,
			position, p.ID, p.Title, p.Price, p.Description, p.Category, p.Image,
			p.Rating.Rate, p.Rating.Count); err != nil {
			return fmt.Errorf("failed to insert product %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	s.logger.Debug().Int("product_count", len(products)).Time("cached_at", timestamp).Msg("Snapshot written.")
	return nil
}

// Retrieve reads the snapshot, or returns (nil, nil) when none is stored.
func (s *Store) Retrieve(ctx context.Context) (*productcache.CachedProducts, error) {
	var cachedAt int64
	err := s.db.QueryRowContext(ctx, `SELECT cached_at FROM snapshot WHERE id = 1`).Scan(&cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot row: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, title, price, description, category, image, rating_rate, rating_count
		 FROM snapshot_products ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	products := make([]product.Product, 0)
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Price, &p.Description, &p.Category, &p.Image,
			&p.Rating.Rate, &p.Rating.Count); err != nil {
			return nil, fmt.Errorf("failed to scan cached product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cached products: %w", err)
	}

	return &productcache.CachedProducts{Products: products, Timestamp: fromNanos(cachedAt)}, nil
}
