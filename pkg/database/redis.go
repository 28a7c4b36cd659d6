package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"taskflow/configs"
	"taskflow/pkg/logger"
)

// ConnectRedis returns a ready client, or nil when REDIS_HOST is empty.
func ConnectRedis(ctx context.Context, cfg configs.Config) (*redis.Client, error) {
	if !cfg.RedisEnabled() {
		logger.SystemLogger.Info("Redis disabled, caching and token revocation are off")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr(), err)
	}

	logger.SystemLogger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr()), zap.Int("db", cfg.RedisDB))
	return client, nil
}
