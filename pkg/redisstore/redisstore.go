// Package redisstore persists the product snapshot under a single Redis key.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-productcache/pkg/product"
	"github.com/illmade-knight/go-productcache/pkg/productcache"
)

// DefaultKey is the Redis key used when Config.Key is not set.
const DefaultKey = "productcache:snapshot"

// Config holds the configuration for the Redis client.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Key names the snapshot entry; defaults to DefaultKey.
	Key string
}

// Store is a Redis-backed productcache.Store.
type Store struct {
	redisClient *redis.Client
	key         string
	logger      zerolog.Logger
}

// envelope is the JSON value stored under the key.
type envelope struct {
	Products  []product.Product `json:"products"`
	Timestamp time.Time         `json:"timestamp"`
}

// New creates and connects a Store. It pings the Redis server to ensure
// connectivity before returning.
func New(ctx context.Context, cfg *Config, logger zerolog.Logger) (*Store, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}
	logger.Info().Str("redis_address", cfg.Addr).Str("key", key).Msg("Successfully connected to Redis.")

	return &Store{
		redisClient: rdb,
		key:         key,
		logger:      logger.With().Str("component", "RedisStore").Logger(),
	}, nil
}

// Close closes the Redis client connection.
func (s *Store) Close() error {
	if s.redisClient != nil {
		s.logger.Info().Msg("Closing Redis client connection...")
		return s.redisClient.Close()
	}
	return nil
}

// DeleteCachedProducts removes the snapshot key. A missing key is a success.
func (s *Store) DeleteCachedProducts(ctx context.Context) error {
	if err := s.redisClient.Del(ctx, s.key).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("Failed to delete snapshot from Redis.")
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Insert replaces the snapshot. No Redis TTL is set; staleness belongs to the
// cache policy, and an expired snapshot must stay readable for the purge path.
func (s *Store) Insert(ctx context.Context, products []product.Product, timestamp time.Time) error {
	jsonData, err := json.Marshal(envelope{Products: products, Timestamp: timestamp})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.redisClient.Set(ctx, s.key, jsonData, 0).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("Failed to set snapshot in Redis.")
		return fmt.Errorf("failed to set snapshot in redis: %w", err)
	}
	s.logger.Debug().Str("key", s.key).Int("product_count", len(products)).Msg("Snapshot written to Redis.")
	return nil
}

// Retrieve reads the snapshot, mapping redis.Nil to an empty store.
func (s *Store) Retrieve(ctx context.Context) (*productcache.CachedProducts, error) {
	cachedData, err := s.redisClient.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		s.logger.Error().Err(err).Str("key", s.key).Msg("Unexpected Redis error during retrieve.")
		return nil, fmt.Errorf("failed to get snapshot from redis: %w", err)
	}

	var env envelope
	if err := json.Unmarshal([]byte(cachedData), &env); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("Failed to unmarshal cached snapshot.")
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &productcache.CachedProducts{Products: env.Products, Timestamp: env.Timestamp}, nil
}
