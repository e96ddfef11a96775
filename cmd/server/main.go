package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/buildline/worktrack/internal/api"
	"github.com/buildline/worktrack/internal/catalog"
	"github.com/buildline/worktrack/internal/config"
	"github.com/buildline/worktrack/internal/engine"
	"github.com/buildline/worktrack/internal/notifier"
	"github.com/buildline/worktrack/internal/store"
)

func main() {
	// Logger
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// SQLite
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Stores and engine
	buildStore := store.NewBuildStore(db)
	sessionStore := store.NewSessionStore(db)
	eng := engine.New(sessionStore, buildStore, logger)

	// Time-up workflow settings, served to clients via /config
	workflowCfg := notifier.Config{
		PopupWindow:      time.Duration(cfg.PopupWindowSeconds) * time.Second,
		ReminderInterval: time.Duration(cfg.PopupReminderSeconds) * time.Second,
	}

	// Router
	router := api.NewRouter(db, eng, buildStore, workflowCfg, cfg.APIKey, logger)

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("worktrack server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Auto-sync the build catalog on startup
	if cfg.CatalogAutoSync && cfg.CatalogPath != "" {
		go func() {
			builds, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				logger.Error("catalog auto-sync failed", "error", err)
				return
			}
			if _, err := catalog.Sync(buildStore, builds, logger); err != nil {
				logger.Error("catalog auto-sync failed", "error", err)
			}
		}()
	}

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
