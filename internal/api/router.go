// Package api is the HTTP front door: routing, middleware and handlers that
// translate between the wire and the domain services.
package api

import (
	"context"
	"log/slog"
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommw "github.com/halcyonlabs/halcyon/internal/api/middleware"
	"github.com/halcyonlabs/halcyon/internal/auth"
	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/tenant"
)

// Pinger is the health probe for the backing database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the router and its collaborators.
type Server struct {
	Router *chi.Mux

	auth    *auth.Service
	tenants *tenant.Service
	pinger  Pinger
	logger  *slog.Logger
}

// NewServer builds the fully wired router. allowedOrigins feeds the CORS
// middleware; pinger may be nil in tests.
func NewServer(authService *auth.Service, tenantService *tenant.Service, pinger Pinger, allowedOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		Router:  chi.NewRouter(),
		auth:    authService,
		tenants: tenantService,
		pinger:  pinger,
		logger:  logger,
	}

	r := s.Router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	// Sentry before recovery so panics reach both.
	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})
	r.Use(sentryHandler.Handle)

	r.Use(custommw.RequestLogger)
	r.Use(custommw.PanicRecovery)
	r.Use(custommw.CORS(allowedOrigins))

	requireSession := custommw.RequireSession(authService)
	requirePermission := func(action identity.Action, resource string) func(http.Handler) http.Handler {
		return custommw.RequirePermission(authService, action, resource)
	}

	authHandler := NewAuthHandler(authService)
	tenantHandler := NewTenantHandler(tenantService)
	userHandler := NewUserHandler(authService)
	roleHandler := NewRoleHandler(authService)

	r.Get("/health", s.Health)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes.
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)

		r.Route("/tenants", func(r chi.Router) {
			r.Post("/", tenantHandler.Create)
			r.Get("/", tenantHandler.List)
			r.Get("/{id}", tenantHandler.Get)
			r.Put("/{id}", tenantHandler.Update)
		})

		// Session-bound routes.
		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Post("/auth/logout", authHandler.Logout)
			r.Post("/auth/logout-all", authHandler.LogoutAll)
			r.Get("/auth/me", authHandler.Me)

			r.Post("/auth/mfa/setup", authHandler.SetupMFA)
			r.Post("/auth/mfa/enable", authHandler.EnableMFA)
			r.Post("/auth/mfa/disable", authHandler.DisableMFA)

			r.Route("/users", func(r chi.Router) {
				r.With(requirePermission(identity.ActionList, "users")).Get("/", userHandler.List)
				r.With(requirePermission(identity.ActionRead, "users")).Get("/{id}", userHandler.Get)
				r.With(requirePermission(identity.ActionUpdate, "users")).Put("/{id}", userHandler.Update)
				r.With(requirePermission(identity.ActionDelete, "users")).Delete("/{id}", userHandler.Delete)
			})

			r.Route("/roles", func(r chi.Router) {
				r.With(requirePermission(identity.ActionCreate, "roles")).Post("/", roleHandler.Create)
				r.With(requirePermission(identity.ActionList, "roles")).Get("/", roleHandler.List)
			})
		})
	})

	return s
}
