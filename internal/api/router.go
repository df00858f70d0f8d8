/**
 * @description
 * This file sets up the HTTP router for the investment-service using the
 * go-chi/chi router. It defines the API routes, applies middleware for logging,
 * CORS, and authentication, and maps the routes to their handler functions.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the investment-service routes.
func NewRouter(h *Handlers, adminJWTSecret, internalKey string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Internal-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Internal server-to-server routes
	r.Route("/internal/accrual", func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalKey))
		r.Post("/run", h.RunAccrualHandler)
	})

	// Dashboard routes that require admin authentication
	r.Group(func(r chi.Router) {
		r.Use(AdminAuthMiddleware(adminJWTSecret))

		r.Get("/investments/status", h.ListInvestmentsByStatusHandler)
		r.Get("/investments/{investmentID}", h.GetInvestmentHandler)
		r.Put("/investmentControl/{investmentID}", h.DecideInvestmentHandler)
		r.Get("/customers/{username}", h.GetCustomerHandler)
		r.Get("/plans", h.ListPlansHandler)
	})

	return r
}
