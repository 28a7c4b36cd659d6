// Package cache keeps short-lived copies of data in Redis. Every type here
// is safe to use with a nil client, in which case it does nothing.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"taskflow/internal/models"
	"taskflow/pkg/logger"
)

const usersKey = "users:all"

// Users caches the user directory served to admins for assignment pickers.
type Users struct {
	client *redis.Client
	ttl    time.Duration
}

func NewUsers(client *redis.Client, ttl time.Duration) *Users {
	return &Users{client: client, ttl: ttl}
}

// Get returns the cached directory. A miss and a Redis failure look the same
// to the caller; failures are logged.
func (u *Users) Get(ctx context.Context) ([]models.User, bool) {
	if u == nil || u.client == nil {
		return nil, false
	}
	raw, err := u.client.Get(ctx, usersKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.SystemLogger.Warn("User cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var users []models.User
	if err := json.Unmarshal(raw, &users); err != nil {
		logger.SystemLogger.Warn("User cache entry corrupt, dropping it", zap.Error(err))
		u.Invalidate(ctx)
		return nil, false
	}
	return users, true
}

func (u *Users) Set(ctx context.Context, users []models.User) {
	if u == nil || u.client == nil {
		return
	}
	raw, err := json.Marshal(users)
	if err != nil {
		logger.SystemLogger.Warn("User cache encode failed", zap.Error(err))
		return
	}
	if err := u.client.Set(ctx, usersKey, raw, u.ttl).Err(); err != nil {
		logger.SystemLogger.Warn("User cache write failed", zap.Error(err))
	}
}

func (u *Users) Invalidate(ctx context.Context) {
	if u == nil || u.client == nil {
		return
	}
	if err := u.client.Del(ctx, usersKey).Err(); err != nil {
		logger.SystemLogger.Warn("User cache invalidation failed", zap.Error(err))
	}
}
