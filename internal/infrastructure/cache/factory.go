package cache

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/shopops/revsync/internal/application/revenue"
	"github.com/shopops/revsync/internal/infrastructure/config"
)

// RunLock is a revenue.RunLock that holds resources
type RunLock interface {
	revenue.RunLock
	io.Closer
}

// RunLockFactory creates run locks based on configuration
type RunLockFactory struct {
	redisConfig config.RedisConfig
	logger      *zap.Logger
}

// NewRunLockFactory creates a new factory
func NewRunLockFactory(cfg config.RedisConfig, logger *zap.Logger) *RunLockFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunLockFactory{redisConfig: cfg, logger: logger}
}

// Create returns a Redis lock when Redis is enabled. If Redis is unreachable
// and in-memory fallback is allowed, it returns an in-memory lock instead.
func (f *RunLockFactory) Create(ctx context.Context) (RunLock, error) {
	if !f.redisConfig.Enabled {
		f.logger.Debug("Redis disabled, using in-memory run lock")
		return NewInMemoryRunLock(), nil
	}

	lock, err := NewRedisRunLock(ctx, RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.redisConfig.KeyPrefix)
	if err == nil {
		f.logger.Info("Using Redis run lock", zap.String("addr", f.redisConfig.Addr()))
		return lock, nil
	}

	if !f.redisConfig.AllowInMemoryFallback {
		return nil, fmt.Errorf("redis required for run lock but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory run lock. "+
		"Concurrent runs from other processes will not be detected.",
		zap.Error(err),
	)
	return NewInMemoryRunLock(), nil
}
