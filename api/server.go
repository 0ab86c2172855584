/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     request logging
  2. Recoverer:  panic recovery (500 instead of crash)
  3. RequestID:  unique id per request for tracing
  4. CORS:       cross-origin requests from the orchestrator's dashboard

ROUTE GROUPS:
  /api/tools/*          Tool definitions and dispatch (the LLM boundary)
  /api/registrations/*  Tenant bindings
  /api/inventory/*      Direct typed access for non-LLM clients
  /healthz              Liveness

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Tool surface (what the agent orchestrator calls)
		r.Route("/tools", func(r chi.Router) {
			r.Get("/", h.ListTools)
			r.Post("/{name}", h.DispatchTool)
		})

		// Tenant bindings
		r.Route("/registrations", func(r chi.Router) {
			r.Post("/", h.Register)
			r.Get("/{caller}", h.GetRegistrations)
		})

		// Typed inventory access
		r.Route("/inventory/{caller}", func(r chi.Router) {
			r.Get("/items", h.ListItems)
			r.Get("/low-stock", h.LowStock)
			r.Route("/items/{item}", func(r chi.Router) {
				r.Get("/", h.GetItem)
				r.Post("/adjustments", h.AdjustItem)
				r.Get("/history", h.GetHistory)
				r.Get("/forecast", h.GetForecast)
			})
		})
	})

	return r
}

// Health responds 200 while the process is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
