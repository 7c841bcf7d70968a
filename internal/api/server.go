// Package api provides the HTTP server for the git dashboard.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/LeanderZiehm/git-dashboard/internal/api/handlers"
	"github.com/LeanderZiehm/git-dashboard/internal/api/health"
	"github.com/LeanderZiehm/git-dashboard/internal/api/middleware"
	"github.com/LeanderZiehm/git-dashboard/internal/cache"
	"github.com/LeanderZiehm/git-dashboard/internal/events"
	"github.com/LeanderZiehm/git-dashboard/internal/scanner"
	"github.com/LeanderZiehm/git-dashboard/internal/store"
	"github.com/LeanderZiehm/git-dashboard/pkg/config"
	"github.com/LeanderZiehm/git-dashboard/ui"
)

// Version is the current version of the dashboard.
// This should be set at build time using ldflags.
var Version = "dev"

// Server represents the dashboard HTTP server.
type Server struct {
	router        chi.Router
	httpServer    *http.Server
	scanner       *scanner.Scanner
	cache         *cache.StatusCache
	syncer        handlers.SyncService
	hub           *events.Hub
	history       store.OperationStore
	metrics       http.Handler
	config        *config.Config
	logger        *slog.Logger
	healthChecker *health.Checker
}

// NewServer creates a new dashboard server with the given dependencies.
// metricsHandler may be nil to disable the /metrics endpoint.
func NewServer(cfg *config.Config, sc *scanner.Scanner, c *cache.StatusCache, sync handlers.SyncService,
	hub *events.Hub, history store.OperationStore, metricsHandler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		scanner: sc,
		cache:   c,
		syncer:  sync,
		hub:     hub,
		history: history,
		metrics: metricsHandler,
		config:  cfg,
		logger:  logger,
	}

	var pinger health.Pinger
	if history != nil {
		pinger = history
	}
	s.healthChecker = health.NewChecker(pinger, sc.Root(), Version)

	s.setupRouter()
	return s
}

// setupRouter configures the router with middleware and routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.Recovery(s.logger))

	reposHandler := handlers.NewReposHandler(s.scanner, s.cache, s.syncer, s.logger)
	legacyHandler := handlers.NewLegacyHandler(s.scanner, s.syncer, s.logger)
	operationsHandler := handlers.NewOperationsHandler(s.history, s.logger)
	statsHandler := handlers.NewStatsHandler(s.cache, s.history, s.logger)
	eventsHandler := handlers.NewEventsHandler(s.hub, s.logger)

	// Everything except the event stream runs under a request timeout.
	// The websocket route must not: the timeout middleware cancels the
	// request context after the interval and would sever idle sockets.
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		// Health check endpoint
		r.Get("/health", s.healthChecker.Handler())

		// Prometheus metrics
		if s.metrics != nil {
			r.Handle("/metrics", s.metrics)
		}

		// Embedded dashboard UI
		r.Handle("/*", ui.Handler())

		// Legacy wire surface, kept for the original UI and any scripts
		// built against it.
		r.Get("/fetch_repo/{repo_name}", legacyHandler.FetchRepo)
		r.Post("/pull_repo", legacyHandler.PullRepo)

		// API routes
		r.Get("/api/repos", reposHandler.List)
		r.Post("/api/fetch-all", reposHandler.FetchAll)
		r.Post("/api/repos/{name}/refresh", reposHandler.Refresh)
		r.Post("/api/repos/{name}/fetch", reposHandler.Fetch)
		r.Post("/api/repos/{name}/pull", reposHandler.Pull)
		r.Get("/api/operations", operationsHandler.List)
		r.Get("/api/stats", statsHandler.Get)
	})

	r.Get("/api/events/ws", eventsHandler.Stream)

	s.router = r
}

// Start starts the HTTP server and blocks until the context is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Addr()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket event stream stays open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting dashboard server", "addr", addr, "scan_root", s.scanner.Root())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down dashboard server")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Name implements the shutdown component interface.
func (s *Server) Name() string { return "http-server" }

// Router returns the chi router for testing purposes.
func (s *Server) Router() chi.Router {
	return s.router
}
