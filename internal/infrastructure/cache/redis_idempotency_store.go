package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/procurement/backoffice/internal/domain/shared"
	"github.com/procurement/backoffice/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces submission keys in a shared Redis
const DefaultKeyPrefix = "panel:submission:"

// RedisIdempotencyStore implements IdempotencyStore using Redis
// This is suitable for deployments where several panel instances
// share one submission history
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore connects to Redis and verifies the connection
func NewRedisIdempotencyStore(ctx context.Context, cfg config.RedisConfig, keyPrefix string) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	return NewRedisIdempotencyStoreWithClient(client, keyPrefix), nil
}

// NewRedisIdempotencyStoreWithClient creates a store with an existing Redis client
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *RedisIdempotencyStore) key(k string) string {
	return s.keyPrefix + k
}

// Reserve claims key with SETNX so concurrent submissions race on a single atomic write
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), shared.IdempotencyPending, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve submission key: %w", err)
	}
	return ok, nil
}

// Complete stores the submission result under key
func (s *RedisIdempotencyStore) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), result, ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete submission key: %w", err)
	}
	return nil
}

// Lookup returns the value held by key
func (s *RedisIdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up submission key: %w", err)
	}
	return val, true, nil
}

// Release forgets key
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to release submission key: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
