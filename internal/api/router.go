package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/quiet-rooms/noisewatch/internal/api/alerts"
	"github.com/quiet-rooms/noisewatch/internal/api/locations"
	"github.com/quiet-rooms/noisewatch/internal/api/middleware"
	"github.com/quiet-rooms/noisewatch/internal/api/samples"
	"github.com/quiet-rooms/noisewatch/internal/api/stats"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		locationHandler := locations.NewHandler(s.storage.Locations(), s.coordinator, s.config.QueryTimeout)
		r.Route("/locations", func(r chi.Router) {
			r.Get("/", locationHandler.List)
			r.Post("/", locationHandler.Create)
			r.Get("/{id}", locationHandler.GetByID)
			r.Delete("/{id}", locationHandler.Delete)
			r.Put("/{id}/choose", locationHandler.Choose)
			r.Put("/{id}/threshold", locationHandler.SetThreshold)
		})

		sampleHandler := samples.NewHandler(s.storage.Samples(), s.coordinator, s.config.QueryTimeout)
		ingestLimiter := middleware.NewRateLimiter(s.config.IngestRatePerMinute)
		r.Route("/samples", func(r chi.Router) {
			r.With(middleware.RateLimitByIP(ingestLimiter)).Post("/", sampleHandler.Ingest)
			r.Get("/latest", sampleHandler.Latest)
		})

		statsHandler := stats.NewHandler(s.coordinator, s.config.QueryTimeout)
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/daily", statsHandler.Daily)
			r.Get("/weekly", statsHandler.Weekly)
			r.Get("/stats", statsHandler.Stats)
			r.Get("/view", statsHandler.ViewState)
			r.Post("/view", statsHandler.Navigate)
		})

		alertHandler := alerts.NewHandler(s.monitor, s.hub, alerts.StreamConfig{
			MaxDuration: s.config.StreamMaxDuration,
			Keepalive:   s.config.StreamKeepalive,
		})
		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", alertHandler.History)
			r.Get("/current", alertHandler.Current)
			r.Get("/stream", alertHandler.Stream)
		})
	})

	// Health checks (public)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)

	return r
}
