package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/authflow/internal/constants"
	"github.com/yasinhessnawi1/authflow/internal/metrics"
	"github.com/yasinhessnawi1/authflow/internal/middleware"
	"github.com/yasinhessnawi1/authflow/internal/utils"
)

// SetupRoutes configures the routes for the application.
//
// Credential endpoints share one per-IP limiter. /me requires a live
// session; /logout only reads one when it is presented.
func (s *Server) SetupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.CORS(s.Config.CORS))
	r.Use(chimiddleware.RequestID)
	if s.Config.Server.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.Recovery())
	if s.Config.Logging.RequestLog {
		r.Use(middleware.RequestLogger())
	}
	if s.Config.Metrics.Enabled {
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.SecurityHeaders(s.Config.App.IsProduction()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.NotFound(w, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.MethodNotAllowed(w)
	})

	if s.Config.Metrics.Enabled && s.registry != nil {
		r.Method(http.MethodGet, s.Config.Metrics.Path, metrics.Handler(s.registry))
	}

	limit := middleware.RateLimit(s.limiter)
	authHandler := s.Handlers.AuthHandler

	r.Route(constants.APIBasePath, func(r chi.Router) {
		r.Get(constants.HealthPath, s.health)

		r.Route(constants.AuthBasePath, func(r chi.Router) {
			// Credential endpoints
			r.Group(func(r chi.Router) {
				r.Use(limit)

				r.Post(constants.AuthRegisterPath, authHandler.Register)
				r.Post(constants.AuthLoginPath, authHandler.Login)
				r.Post(constants.AuthForgotPasswordPath, authHandler.ForgotPassword)
				r.Put(constants.AuthResetPasswordPath, authHandler.ResetPassword)
				r.Post(constants.AuthCheckUserPath, authHandler.CheckUser)
				r.Post(constants.AuthDirectResetPath, authHandler.DirectResetPassword)
			})

			r.With(middleware.OptionalSession(s.resolver)).Get(constants.AuthLogoutPath, authHandler.Logout)
			r.With(middleware.RequireSession(s.resolver)).Get(constants.AuthMePath, authHandler.Me)
		})
	})

	s.router = r
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() chi.Router {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.db.HealthCheck(r.Context()); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		utils.Error(w, http.StatusServiceUnavailable, constants.CodeServiceUnavailable, constants.MsgServiceUnhealthy, nil)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.Config.App.Version,
	})
}
