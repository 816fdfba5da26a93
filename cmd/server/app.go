package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-co-op/gocron/v2"
	"github.com/sellerdesk/taskd/internal/config"
	"github.com/sellerdesk/taskd/internal/executors"
	"github.com/sellerdesk/taskd/internal/service"
	"github.com/sellerdesk/taskd/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// accessLog receives one line per HTTP request
	accessLog middleware.LoggerInterface

	scheduler   *task.Scheduler
	executors   *executors.Registry
	taskService service.TaskService

	// janitor periodically clears finished tasks; nil when disabled
	janitor gocron.Scheduler
}

// newApplication creates a new application instance with all dependencies initialized.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:    cfg,
		logger:    logger,
		accessLog: log.New(os.Stdout, "", log.LstdFlags),
	}

	app.scheduler = task.NewScheduler(task.Config{
		MaxConcurrent: cfg.Scheduler.MaxConcurrent,
	}, logger)

	var err error
	app.executors, err = executors.NewDefaultRegistry(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to register executors: %w", err)
	}
	logger.Info("Executors registered", "types", app.executors.Types())

	app.taskService, err = service.NewTaskService(app.scheduler, app.executors, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	if cfg.Janitor.Enabled() {
		app.janitor, err = setupJanitor(app.taskService, cfg.Janitor, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to set up janitor: %w", err)
		}
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if app.janitor != nil {
		app.janitor.Start()
	}

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops the janitor and gives running tasks the configured grace
// period to return.
func (app *application) cleanup() {
	if app.janitor != nil {
		if err := app.janitor.Shutdown(); err != nil {
			app.logger.Error("Error shutting down janitor", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), app.config.Scheduler.ShutdownTimeout())
	defer cancel()
	if err := app.taskService.Shutdown(ctx); err != nil {
		app.logger.Error("Tasks did not stop before the shutdown timeout",
			"error", err,
			"running_count", app.scheduler.RunningCount())
	}

	app.logger.Info("Application shutdown completed")
}
