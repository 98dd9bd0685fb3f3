// Package ui is the HTTP application: the JSON API mounted under /api and
// HTML pages over sessions.
package ui

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"insightminer/app"
	"insightminer/internal"
	"insightminer/internal/api"
)

// Config holds UI application configuration
type Config struct {
	Port        string
	ReadTimeout time.Duration
}

// App represents the UI application
type App struct {
	router  *chi.Mux
	service *app.ExplainService
	config  Config
	logger  *internal.Logger
	server  *http.Server
}

// NewApp creates a new UI application
func NewApp(config Config, service *app.ExplainService, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.Port == "" {
		config.Port = "8080"
	}
	a := &App{
		router:  chi.NewRouter(),
		service: service,
		config:  config,
		logger:  logger.Named("ui"),
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recoverer)
	a.router.Use(a.requestLogger)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/sessions/{id}/report", a.handleReport)
	a.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// gin serves everything below /api, routes keep their full path
	a.router.Mount("/api", api.NewRouter(api.NewHandler(a.service, a.logger), "/api"))
}

// requestLogger logs each request at DEBUG
func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Debug("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

// Handler returns the root handler
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves HTTP until Shutdown is called
func (a *App) Start() error {
	a.server = &http.Server{
		Addr:        ":" + a.config.Port,
		Handler:     a.router,
		ReadTimeout: a.config.ReadTimeout,
	}
	a.logger.Info("starting insightminer server on %s", a.server.Addr)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (a *App) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
