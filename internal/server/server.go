package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/criteo/guestgate/internal/auth"
	"github.com/criteo/guestgate/internal/config"
	"github.com/criteo/guestgate/internal/guard"
	"github.com/criteo/guestgate/internal/metrics"
	"github.com/criteo/guestgate/internal/server/middleware"
	"github.com/criteo/guestgate/internal/storage"
)

// HandlerSet contains all HTTP handlers
type HandlerSet struct {
	// Pages
	Home        http.HandlerFunc
	LoginForm   http.HandlerFunc
	LoginSubmit http.HandlerFunc
	Logout      http.HandlerFunc

	// API
	Health     http.HandlerFunc
	Whoami     http.HandlerFunc
	AuthState  http.HandlerFunc
	AuthReload http.HandlerFunc
	Version    http.HandlerFunc
}

// Server represents the HTTP server
type Server struct {
	config       *config.Config
	logger       *slog.Logger
	authService  auth.Service
	source       storage.Source // nil when auth is disabled
	registry     *prometheus.Registry
	guardMetrics *metrics.GuardMetrics
	httpMetrics  *metrics.HTTPMetrics
	httpServer   *http.Server
	handlers     HandlerSet
}

// NewServer creates a new server instance. Metrics are registered on reg,
// which is also served on /metrics.
func NewServer(cfg *config.Config, logger *slog.Logger, authService auth.Service, source storage.Source, reg *prometheus.Registry) *Server {
	return &Server{
		config:       cfg,
		logger:       logger,
		authService:  authService,
		source:       source,
		registry:     reg,
		guardMetrics: metrics.NewGuardMetrics(reg),
		httpMetrics:  metrics.NewHTTPMetrics(reg),
	}
}

// Start starts the HTTP server and blocks until a shutdown signal or a
// server error
func (s *Server) Start() error {
	router := s.setupRouter()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: router,
		// WriteTimeout must cover the guest guard wait
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10*time.Second + s.config.Guard.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server",
		"host", s.config.Server.Host,
		"port", s.config.Server.Port,
		"auth_type", s.config.Auth.Type,
		"users_uri", s.config.Auth.UsersURI,
		"guard_timeout", s.config.Guard.Timeout.String(),
		"guard_poll_interval", s.config.Guard.PollInterval.String())

	serverErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		s.logger.Info("Shutdown signal received", "signal", sig.String())
		return s.Shutdown()
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	s.logger.Info("Initiating graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server shutdown failed", "error", err)
		return err
	}

	if s.source != nil {
		if err := s.source.Close(); err != nil {
			s.logger.Error("Users source close failed", "error", err)
			return err
		}
	}

	s.logger.Info("Server stopped gracefully")
	return nil
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() *chi.Mux {
	router := chi.NewRouter()

	// Global middleware (applied to all routes)
	if s.config.Server.TrustProxy {
		router.Use(chimw.RealIP)
	}
	router.Use(middleware.Logging(s.logger))
	router.Use(chimw.Recoverer)
	router.Use(middleware.NewRateLimiter(s.config.Server.RateLimit, s.httpMetrics.RecordRateLimited))

	guest := guard.Guest(s.authService,
		guard.WithPollInterval(s.config.Guard.PollInterval),
		guard.WithTimeout(s.config.Guard.Timeout),
		guard.WithHomePath(s.config.Guard.HomePath),
		guard.WithLogger(s.logger),
		guard.WithMetrics(s.guardMetrics))

	if s.handlers.Home != nil {
		router.Get("/", s.handlers.Home)
	}

	// Guest-only pages
	router.Group(func(r chi.Router) {
		r.Use(guest)
		if s.handlers.LoginForm != nil {
			r.Get("/login", s.handlers.LoginForm)
		}
		if s.handlers.LoginSubmit != nil {
			r.Post("/login", s.handlers.LoginSubmit)
		}
	})

	if s.handlers.Logout != nil {
		router.Post("/logout", s.handlers.Logout)
	}

	router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	router.Route("/api/v1", func(r chi.Router) {
		if s.handlers.Health != nil {
			r.Get("/health", s.handlers.Health)
		}
		if s.handlers.Version != nil {
			r.Get("/version", s.handlers.Version)
		}
		if s.handlers.Whoami != nil {
			r.Get("/whoami", s.handlers.Whoami)
		}

		r.Route("/auth", func(r chi.Router) {
			if s.handlers.AuthState != nil {
				r.Get("/state", s.handlers.AuthState)
			}

			// Reload (auth required)
			if s.handlers.AuthReload != nil {
				r.With(s.authService.Middleware()).Post("/reload", s.handlers.AuthReload)
			}
		})
	})

	return router
}

// SetHandlers sets all handlers (called from the CLI to avoid import cycle)
func (s *Server) SetHandlers(handlers HandlerSet) {
	s.handlers = handlers
}
