package cache

import (
	"context"
	"fmt"

	"github.com/procurement/backoffice/internal/domain/shared"
	"github.com/procurement/backoffice/internal/infrastructure/config"
	"go.uber.org/zap"
)

// IdempotencyStoreFactory creates idempotency stores based on configuration
type IdempotencyStoreFactory struct {
	panelConfig           config.PanelConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// IdempotencyStoreFactoryOption is a functional option for configuring the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory store when Redis is unavailable
// Default is false outside development
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a new factory
func NewIdempotencyStoreFactory(panel config.PanelConfig, redisCfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		panelConfig: panel,
		redisConfig: redisCfg,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateStore returns the store selected by panel.idempotency_backend.
// It returns nil when idempotency is disabled.
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context) (shared.IdempotencyStore, error) {
	if !f.panelConfig.IdempotencyEnabled {
		f.logger.Info("submission idempotency disabled")
		return nil, nil
	}

	switch f.panelConfig.IdempotencyBackend {
	case "", "memory":
		f.logger.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	case "redis":
		store, err := NewRedisIdempotencyStore(ctx, f.redisConfig, f.panelConfig.IdempotencyKeyPrefix)
		if err == nil {
			f.logger.Info("using Redis idempotency store", zap.String("addr", f.redisConfig.Addr()))
			return store, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
			"Duplicate submissions are only detected per instance.",
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore(), nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", f.panelConfig.IdempotencyBackend)
	}
}
