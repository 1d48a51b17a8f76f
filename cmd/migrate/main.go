package main

import (
	"log/slog"
	"os"

	"github.com/themattbirch/screen-time-guardian/internal/config"
	"github.com/themattbirch/screen-time-guardian/internal/db"
	"github.com/themattbirch/screen-time-guardian/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database, db.Migrations(cfg.MigrationsDir)); err != nil {
		logger.Error("run migrations", "error", err)
		database.Close()
		os.Exit(1)
	}

	logger.Info("migrations applied successfully", "path", cfg.DBPath)
}
