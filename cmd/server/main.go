// Package main implements the entry point for the taskd server, which runs
// background tasks in-process and exposes them over an HTTP and websocket API.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/sellerdesk/taskd/internal/config"
	"github.com/sellerdesk/taskd/internal/platform/logger"
)

func main() {
	cfg, logger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app, err := newApplication(cfg, logger)
	if err != nil {
		logger.Error("Failed to create application", "error", err)
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		logger.Error("Server stopped with error", "error", err)
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"max_concurrent", cfg.Scheduler.MaxConcurrent,
		"janitor_interval", cfg.Janitor.Interval.String())
	if cfg.Server.AdminToken != "" {
		l.Debug("Auth configuration", "admin_token_present", true)
	}

	return cfg, l, nil
}
