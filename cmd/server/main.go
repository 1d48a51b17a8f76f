package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/themattbirch/screen-time-guardian/internal/config"
	"github.com/themattbirch/screen-time-guardian/internal/db"
	"github.com/themattbirch/screen-time-guardian/internal/events"
	"github.com/themattbirch/screen-time-guardian/internal/handler"
	"github.com/themattbirch/screen-time-guardian/internal/logging"
	"github.com/themattbirch/screen-time-guardian/internal/repository"
	"github.com/themattbirch/screen-time-guardian/internal/router"
	"github.com/themattbirch/screen-time-guardian/internal/service"
	"github.com/themattbirch/screen-time-guardian/internal/store"
	"github.com/themattbirch/screen-time-guardian/internal/timer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, db.Migrations(cfg.MigrationsDir)); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	userRepo := repository.NewUserRepository(database)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, logger)
	timerService := service.NewTimerService(service.TimerServiceOptions{
		Stores:     storeFactory(cfg, database),
		Broker:     events.NewBroker(),
		Clock:      timer.SystemClock{},
		Scheduler:  timer.NewTickerScheduler(),
		TickPeriod: cfg.TickInterval,
		Location:   cfg.Location,
		Logger:     logger,

		ResetCountsAsAbandoned: cfg.ResetCountsAsAbandoned,
		HapticsSupported:       cfg.HapticsSupported,
		NotificationsSupported: cfg.NotificationsSupported,
	})
	defer timerService.Shutdown()

	handlers := router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Timer:  handler.NewTimerHandler(timerService),
		Events: handler.NewEventsHandler(timerService, 0),
	}
	engine := router.New(authService, handlers, cfg.CORSOrigins, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr, "storage", cfg.Storage)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func storeFactory(cfg config.Config, database *sql.DB) store.Factory {
	if cfg.Storage == config.StorageMemory {
		return store.MemoryFactory()
	}
	return store.SQLiteFactory(database)
}
