// Command seed migrates the Postgres schema and loads the demo accounts and
// tasks. It is safe to run repeatedly.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"taskflow/configs"
	"taskflow/internal/repository"
	"taskflow/pkg/database"
	"taskflow/pkg/logger"
)

func main() {
	cfg := configs.LoadConfig()
	if err := logger.InitLoggers(""); err != nil {
		fmt.Fprintln(os.Stderr, "init loggers:", err)
		os.Exit(1)
	}
	defer logger.SyncLoggers()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := seed(ctx, cfg); err != nil {
		logger.ErrorLogger.Error("Seeding failed", zap.Error(err))
		logger.SyncLoggers()
		os.Exit(1)
	}
	logger.SystemLogger.Info("Seeding completed")
}

func seed(ctx context.Context, cfg configs.Config) error {
	db, err := database.ConnectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.RunMigrations(cfg.PostgresDSN(), cfg.DBName); err != nil {
		return err
	}
	return repository.SeedDemoData(ctx, repository.NewPostgres(db))
}
