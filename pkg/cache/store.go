package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found or has expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidSnapshot indicates a stored value failed to decode.
	ErrInvalidSnapshot = errors.New("invalid cache snapshot")
)

// Store is key/value storage with per-entry expiration for serialized
// response snapshots. Implementations must be safe for concurrent use and
// must propagate backend failures as errors; converting a failure into a
// safe miss is the middleware's job, not the store's.
type Store interface {
	// Get retrieves a stored value. Returns ErrCacheMiss when the key was
	// never written or has expired.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with the given TTL. A non-positive ttl falls back
	// to the store's default TTL.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// Clear removes every key the store manages. With a shared backend this
	// includes keys outside the cache namespace, so deployments sharing a
	// Redis instance must isolate by database.
	Clear(ctx context.Context) error

	// Ping reports backend reachability.
	Ping(ctx context.Context) error
}

// RedisStore is the Redis-backed Store used in production. All keys are
// namespaced with a fixed prefix so the cache can coexist with other users
// of the same backend.
type RedisStore struct {
	redis      *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedisStore creates a Redis-backed store. The client is shared
// process-wide state created once at startup.
func NewRedisStore(redisClient *redis.Client, prefix string, defaultTTL time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &RedisStore{
		redis:      redisClient,
		prefix:     prefix,
		defaultTTL: defaultTTL,
	}
}

// namespaced prepends the store prefix to a cache key.
func (s *RedisStore) namespaced(key string) string {
	return s.prefix + ":" + key
}

// Get retrieves a stored value by key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.redis.Get(ctx, s.namespaced(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return "", fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

// Set stores a value with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.redis.Set(ctx, s.namespaced(key), value, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a single key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.namespaced(key)).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear flushes the whole Redis database the store is connected to.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.FlushDB(ctx).Err(); err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("redis flushdb: %w", err)
	}
	return nil
}

// Ping checks backend reachability.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
