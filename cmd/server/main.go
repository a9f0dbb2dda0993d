package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garnizeh/mentorhub/api"
	dbfs "github.com/garnizeh/mentorhub/db"
	"github.com/garnizeh/mentorhub/internal/config"
	"github.com/garnizeh/mentorhub/internal/db"
	"github.com/garnizeh/mentorhub/internal/notify"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.SetLogger(logger)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("starting mentorhub server", slog.String("version", version), slog.String("build_time", buildTime), slog.String("env", cfg.Env))

	ctx := context.Background()

	// Open database connection
	openCtx, openCancel := context.WithTimeout(ctx, cfg.APITimeout)
	conn, err := db.New(openCtx, cfg.DatabasePath, logger)
	openCancel()
	if err != nil {
		logger.Error("failed to open DB", slog.Any("err", err))
		os.Exit(1)
	}

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, conn, dbfs.Migrations); err != nil {
			logger.Error("migration failed", slog.Any("err", err))
			conn.Close()
			os.Exit(1)
		}
	}

	hub := notify.NewHub(logger, cfg.SSE.Buffer)

	handler, err := api.SetupRoutes(cfg, version, buildTime, conn, hub)
	if err != nil {
		logger.Error("failed to set up routes", slog.Any("err", err))
		conn.Close()
		os.Exit(1)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// streams get a last frame, then their handlers return so Shutdown can finish
	n := hub.Broadcast(notify.NewEvent("SERVER_SHUTDOWN", nil))
	logger.Info("shutdown broadcast sent", slog.Int("streams", n))
	hub.Close()

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("err", err))
	}

	// Close database connection
	if err := conn.Close(); err != nil {
		logger.Error("error closing DB", slog.Any("err", err))
	}

	logger.Info("server exited")
}
