package cache

import (
	"go.uber.org/zap"

	"github.com/crosslister/backend/internal/domain/shared"
	"github.com/crosslister/backend/internal/infrastructure/config"
)

// NewIdempotencyStore builds the idempotency store the configuration asks
// for: Redis when enabled and reachable, in-memory otherwise.
func NewIdempotencyStore(cfg *config.RedisConfig, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if !cfg.Enabled {
		logger.Info("Using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Using Redis idempotency store", zap.String("addr", cfg.Addr()))
	return store, nil
}
