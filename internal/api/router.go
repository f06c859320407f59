package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)

			// Account endpoints
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", s.handleListAccounts)
				r.Post("/", s.handleCreateAccount)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetAccount)
					r.Patch("/", s.handleUpdateAccount)
					r.Put("/role", s.handleAssignRole)
					r.Put("/password", s.handleResetPassword)
					r.Put("/activation", s.handleSetActivation)
				})
			})

			// Tenant endpoints
			r.Route("/tenants", func(r chi.Router) {
				r.Get("/", s.handleListTenants)
				r.Post("/", s.handleCreateTenant)
				r.Get("/{id}", s.handleGetTenant)
			})

			// Audit trail
			r.Get("/audit", s.handleQueryAudit)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": s.version,
	})
}
