// Package server provides the HTTP server of the authentication API.
// It wires repositories, services and handlers together, configures
// routing and middleware, and manages the server lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/didip/tollbooth/v6/limiter"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authflow/internal/auth"
	"github.com/yasinhessnawi1/authflow/internal/config"
	"github.com/yasinhessnawi1/authflow/internal/constants"
	"github.com/yasinhessnawi1/authflow/internal/database"
	"github.com/yasinhessnawi1/authflow/internal/handlers"
	"github.com/yasinhessnawi1/authflow/internal/metrics"
	"github.com/yasinhessnawi1/authflow/internal/middleware"
	"github.com/yasinhessnawi1/authflow/internal/repository"
	"github.com/yasinhessnawi1/authflow/internal/service"
	"github.com/yasinhessnawi1/authflow/migrations"
)

// maintenanceTimeout bounds a single cleanup run.
const maintenanceTimeout = 5 * time.Minute

// Handlers contains all HTTP handlers for the application.
type Handlers struct {
	// AuthHandler manages the /api/auth endpoints
	AuthHandler *handlers.AuthHandler
}

// Server represents the API server.
type Server struct {
	// Config contains application configuration
	Config *config.AppConfig

	// Handlers contains all HTTP request handlers
	Handlers *Handlers

	pool     *database.Pool
	db       DBHealthChecker
	resolver auth.SessionResolver
	cleaner  ExpiredCleaner
	limiter  *limiter.Limiter
	registry *prometheus.Registry

	router     chi.Router
	httpServer *http.Server

	maintenanceInterval time.Duration
	maintenanceWG       sync.WaitGroup
}

// NewServer connects to the database, applies pending migrations and
// builds a server on top of the connection.
func NewServer(ctx context.Context, cfg *config.AppConfig) (*Server, error) {
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	if err := migrations.NewMigrator(pool).Up(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	s, err := NewServerWithPool(cfg, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewServerWithPool builds a server on an already open pool. The
// initialization order is auth providers, repositories, services, handlers
// and routes.
func NewServerWithPool(cfg *config.AppConfig, pool *database.Pool) (*Server, error) {
	s := &Server{
		Config:              cfg,
		pool:                pool,
		db:                  pool,
		maintenanceInterval: constants.DBMaintenanceInterval,
	}

	jwtService := auth.NewJWTService(&cfg.JWT)
	hasher, err := auth.NewPasswordHasher(auth.ConfigFromHashSettings(cfg.PasswordHash))
	if err != nil {
		return nil, fmt.Errorf("failed to set up password hasher: %w", err)
	}

	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)

	authService := service.NewAuthService(
		userRepo,
		sessionRepo,
		pool,
		jwtService,
		hasher,
		service.NewEmailService(cfg.Mail),
		cfg.Auth,
	)
	s.resolver = authService
	s.cleaner = authService

	s.Handlers = &Handlers{
		AuthHandler: handlers.NewAuthHandler(authService, handlers.CookieSettings{
			TTL:    cfg.JWT.Expiry,
			Secure: cfg.App.IsProduction(),
			Domain: cfg.Auth.CookieDomain,
		}),
	}

	s.limiter = middleware.NewLimiter(cfg.RateLimit)
	if cfg.Metrics.Enabled {
		s.registry = metrics.NewRegistry()
	}

	s.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// Start runs the server until SIGINT or SIGTERM, then shuts it down
// gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.Run(ctx)
}

// Run serves HTTP and runs the maintenance task until ctx is cancelled or
// the listener fails.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().
			Str("address", listener.Addr().String()).
			Msg("Starting server")

		serverErrors <- s.httpServer.Serve(listener)
	}()

	maintenanceCtx, cancelMaintenance := context.WithCancel(ctx)
	defer cancelMaintenance()
	s.SetupMaintenanceTasks(maintenanceCtx)

	select {
	case err := <-serverErrors:
		cancelMaintenance()
		s.maintenanceWG.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the server, waits for the maintenance task
// and closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	log.Info().Msg("Server stopped gracefully")

	s.maintenanceWG.Wait()

	s.pool.Close()
	log.Info().Msg("Database connection closed")

	return nil
}

// SetupMaintenanceTasks starts the periodic cleanup of expired sessions and
// reset tokens. The goroutine exits when ctx is cancelled.
func (s *Server) SetupMaintenanceTasks(ctx context.Context) {
	s.maintenanceWG.Add(1)
	go func() {
		defer s.maintenanceWG.Done()
		runMaintenance(ctx, s.cleaner, s.maintenanceInterval)
	}()
}

func runMaintenance(ctx context.Context, cleaner ExpiredCleaner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleanupOnce(ctx, cleaner)
		}
	}
}

func cleanupOnce(ctx context.Context, cleaner ExpiredCleaner) {
	ctx, cancel := context.WithTimeout(ctx, maintenanceTimeout)
	defer cancel()

	sessions, tokens, err := cleaner.CleanupExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to clean up expired sessions and reset tokens")
		return
	}
	if sessions > 0 || tokens > 0 {
		log.Info().
			Int64("sessions", sessions).
			Int64("reset_tokens", tokens).
			Msg("Cleaned up expired records")
	}
}
