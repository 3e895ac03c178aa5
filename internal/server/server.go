// Package server exposes the router's admin HTTP API: liveness and
// readiness probes, topology inspection, and dry-run key routing.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/fakeNetflix/dyno/internal/config"
	"github.com/fakeNetflix/dyno/internal/middleware"
	"github.com/fakeNetflix/dyno/internal/routing"
)

// Server represents the admin HTTP server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	handlers   *Handlers
	logger     *zap.Logger
	cfg        *config.Config
}

// NewServer creates a new admin HTTP server over the given selector.
func NewServer(cfg *config.Config, selector *routing.HostSelectionWithFallback, logger *zap.Logger) *Server {
	router := mux.NewRouter()
	handlers := NewHandlers(selector, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		router:     router,
		httpServer: httpServer,
		handlers:   handlers,
		logger:     logger,
		cfg:        cfg,
	}
}

// SetupRoutes configures all HTTP routes.
func (s *Server) SetupRoutes() {
	middlewareChain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logging(s.logger),
	}

	if s.cfg.Server.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(
			s.cfg.Server.RateLimit.RequestsPerSecond,
			s.cfg.Server.RateLimit.BurstSize,
			s.logger,
		)
		middlewareChain = append(middlewareChain, rateLimiter.Limit)
	}

	chain := middleware.Chain(middlewareChain...)
	s.router.Use(func(next http.Handler) http.Handler {
		return chain(next)
	})

	// Health check endpoints
	s.router.HandleFunc("/health/live", s.handlers.Liveness).Methods(http.MethodGet)
	s.router.HandleFunc("/health/ready", s.handlers.Readiness).Methods(http.MethodGet)

	// Inspection routes
	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/topology", s.handlers.Topology).Methods(http.MethodGet)
	v1.HandleFunc("/ring", s.handlers.Ring).Methods(http.MethodGet)
	v1.HandleFunc("/route/{key}", s.handlers.RouteKey).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "endpoint not found")
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting admin HTTP server",
		zap.String("host", s.cfg.Server.Host),
		zap.Int("port", s.cfg.Server.Port),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start admin HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down admin HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}
