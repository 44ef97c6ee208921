package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix namespaces every key this service writes to Redis
const KeyPrefix = "backoffice:"

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewStore returns a Redis store over client, or an in-memory store when
// client is nil. The in-memory fallback does not share state across
// instances, so cached summaries may lag on other replicas.
func NewStore(client *redis.Client, logger *zap.Logger) Store {
	if client != nil {
		logger.Info("Using Redis cache store")
		return NewRedisStore(client, KeyPrefix)
	}
	logger.Warn("Redis disabled, using in-memory cache store")
	return NewInMemoryStore(time.Minute)
}
