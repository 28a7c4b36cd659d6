package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"taskflow/configs"
	v1 "taskflow/internal/api/v1"
	"taskflow/internal/auth"
	"taskflow/internal/cache"
	"taskflow/internal/repository"
	"taskflow/internal/repository/memory"
	"taskflow/internal/service"
	"taskflow/internal/websocket"
	"taskflow/pkg/database"
	"taskflow/pkg/logger"
)

func main() {
	cfg := configs.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	if err := logger.InitLoggers(cfg.LogDir); err != nil {
		fmt.Fprintln(os.Stderr, "init loggers:", err)
		os.Exit(1)
	}
	defer logger.SyncLoggers()

	if err := run(cfg); err != nil {
		logger.ErrorLogger.Error("Application stopped with error", zap.Error(err))
		logger.SyncLoggers()
		os.Exit(1)
	}
}

func run(cfg configs.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.SystemLogger.Info("Starting application",
		zap.String("env", cfg.Env),
		zap.String("store", cfg.StoreDriver),
		zap.Int("port", cfg.AppPort),
	)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	rdb, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	app := v1.NewApp(v1.AppOptions{
		CORSOrigins:  cfg.CORSOrigins,
		RateLimitMax: cfg.RateLimitMax,
	}, v1.Services{
		Store:    store,
		Redis:    rdb,
		Tasks:    service.NewTaskService(store, hub),
		Comments: service.NewCommentService(store, hub),
		Users:    service.NewUserService(store, cache.NewUsers(rdb, cfg.UsersCacheTTL)),
		Auth:     service.NewAuthService(store, auth.NewTokenManager(cfg.Secret(), cfg.TokenTTL, revocations(rdb))),
		Hub:      hub,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.SystemLogger.Info("Application ready", zap.Int("port", cfg.AppPort))
		errCh <- app.Listen(fmt.Sprintf(":%d", cfg.AppPort))
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.SystemLogger.Info("Shutdown signal received, stopping server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.SystemLogger.Info("Server stopped")
	return nil
}

// openStore returns the store selected by STORE_DRIVER. The in-memory store
// starts out with the demo data so it is usable straight away.
func openStore(ctx context.Context, cfg configs.Config) (repository.Store, error) {
	if cfg.StoreDriver == configs.DriverMemory {
		store := memory.New()
		if err := repository.SeedDemoData(ctx, store); err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		return store, nil
	}

	db, err := database.ConnectDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := repository.RunMigrations(cfg.PostgresDSN(), cfg.DBName); err != nil {
		db.Close()
		return nil, err
	}
	return repository.NewPostgres(db), nil
}

func revocations(rdb *redis.Client) auth.Revocations {
	if rdb == nil {
		return nil
	}
	return cache.NewDenylist(rdb)
}
