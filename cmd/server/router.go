package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sellerdesk/taskd/internal/api"
	apiMiddleware "github.com/sellerdesk/taskd/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.HideQueryToken)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  app.accessLog,
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	streamHandler := api.NewStreamHandler(app.taskService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.config.Server.AdminToken)
	if !authMiddleware.Enabled() {
		app.logger.Warn("no admin token configured, task API is unauthenticated")
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		api.RegisterRoutes(r, taskHandler, streamHandler)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
