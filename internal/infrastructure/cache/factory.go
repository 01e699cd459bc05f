package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/handmade/backend/internal/domain/shared"
	"github.com/handmade/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdempotencyStoreFactory builds the idempotency store the configuration asks for
type IdempotencyStoreFactory struct {
	redisConfig           config.RedisConfig
	keyPrefix             string
	logger                *zap.Logger
	allowInMemoryFallback bool
	pingTimeout           time.Duration
}

// IdempotencyStoreFactoryOption configures the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the factory logger
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// the in-memory store. Enabled by default.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.allowInMemoryFallback = allow }
}

// WithKeyPrefix sets the Redis key prefix
func WithKeyPrefix(prefix string) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.keyPrefix = prefix }
}

// NewIdempotencyStoreFactory creates a factory for cfg
func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig:           cfg,
		keyPrefix:             DefaultKeyPrefix,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		pingTimeout:           5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when Redis is enabled and reachable,
// otherwise the in-memory store
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context) (shared.IdempotencyStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, f.pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore(), nil
	}

	f.logger.Info("Using Redis idempotency store", zap.String("addr", f.redisConfig.Addr()))
	return NewRedisIdempotencyStore(client, f.keyPrefix), nil
}
