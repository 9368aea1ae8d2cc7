// Package redisclient connects to the optional Redis instance backing the
// share-password-verification cache, grounded on the teacher's
// initRedisClient (ping-on-connect, graceful degradation when disabled or
// unreachable).
package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/imranali-mngmt/secureiduploader/internal/config"
)

// New returns a connected client, or nil if Redis is disabled or
// unreachable — callers must treat a nil client as "no Redis", not an
// error condition (internal/sharecache then keeps its entries in process).
func New(cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, share-password cache falls back to in-process memory", zap.Error(err))
		_ = client.Close()
		return nil
	}

	log.Info("redis connected", zap.String("addr", cfg.Addr))
	return client
}
