package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrwolf/fitpicker/internal/config"
)

func NewRouter(cfg *config.Config, h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)

	// Public endpoints
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(cfg.RateLimit))
		r.Use(AuthMiddleware(cfg))
		r.Use(JSONContentType)

		r.Get("/weather", h.Weather)
		r.Put("/location", h.SetLocation)

		r.Get("/items", h.ListItems)
		r.Post("/items", h.AddItem)
		r.Put("/items/{id}", h.EditItem)
		r.Delete("/items/{id}", h.DeleteItem)
		r.Delete("/items/{id}/override", h.ClearOverride)

		r.Get("/suggestion", h.Suggestion)
		r.Post("/suggestion/regenerate", h.Regenerate)

		r.Post("/feedback", h.Feedback)
		r.Post("/feedback/temperature", h.TemperatureFeedback)

		r.Get("/history", h.History)
		r.Get("/preferences", h.Preferences)
	})

	return r
}
