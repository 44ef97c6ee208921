package lock

import (
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// New picks the backend named in cfg. A nil client forces the memory backend.
func New(cfg config.LockConfig, client *redis.Client, logger *zap.Logger) shared.Locker {
	if cfg.Backend == "redis" && client != nil {
		logger.Info("Using Redis aggregate locks", zap.Duration("ttl", cfg.TTL))
		return NewRedisLocker(client, cfg, logger)
	}
	logger.Info("Using in-process aggregate locks")
	return NewMemoryLocker(cfg.WaitTimeout)
}
