package handlers

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskflow/internal/repository"
	"taskflow/pkg/logger"
)

type HealthHandler struct {
	store repository.Store
	redis *redis.Client
}

// NewHealthHandler reports on store and, when configured, Redis.
func NewHealthHandler(store repository.Store, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{store: store, redis: rdb}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, code := "OK", fiber.StatusOK
	database := "up"
	if err := h.store.Ping(ctx); err != nil {
		logger.ErrorLogger.Error("Health check: store unreachable", zap.Error(err))
		database = "down"
		status, code = "DEGRADED", fiber.StatusServiceUnavailable
	}

	cache := "disabled"
	if h.redis != nil {
		cache = "up"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			logger.ErrorLogger.Error("Health check: redis unreachable", zap.Error(err))
			cache = "down"
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"message":  "Task Manager API is running",
		"database": database,
		"redis":    cache,
	})
}
