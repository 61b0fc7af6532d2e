// Package api exposes the analytics engine to the dashboard over HTTP.
// Handlers translate query strings into typed filter/page requests, and map
// engine errors onto status codes; all computation lives in the analytics and
// store packages.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/efda-insights/permit-analytics/internal/analytics"
	"github.com/efda-insights/permit-analytics/internal/config"
	"github.com/efda-insights/permit-analytics/internal/store"
)

// Server wires the engine's read surface into a chi router.
type Server struct {
	store store.Store
	svc   *analytics.Service
	cfg   *config.Config
}

// NewServer creates a Server.
func NewServer(st store.Store, svc *analytics.Service, cfg *config.Config) *Server {
	return &Server{store: st, svc: svc, cfg: cfg}
}

// Router builds the route tree. The analytics routes sit behind a shared rate
// limiter: spread and growth rankings recompute from the store on every
// request by design, so a misbehaving dashboard tab must not monopolize the
// pool.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/orders", s.handleListOrders)
		r.Get("/orders/{id}", s.handleGetOrder)
		r.Get("/ports", s.handleListPorts)

		r.Get("/products", s.handleListProducts)
		r.Get("/products/{slug}", s.handleProductDetail)

		r.Route("/analytics", func(r chi.Router) {
			r.Use(rateLimiter(s.cfg.Server.RateLimitPerSec, s.cfg.Server.RateLimitBurst))
			r.Get("/growth", s.handleGrowth)
			r.Get("/decline", s.handleDecline)
			r.Get("/spreads", s.handleSpreads)
			r.Get("/monthly", s.handleMonthly)
			r.Get("/compare/{report}", s.handleCompare)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
