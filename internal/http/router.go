package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", h.Health)

	r.Route("/inventory", func(r chi.Router) {
		r.Post("/reserve", h.Reserve)
		r.Post("/release", h.Release)
		r.Post("/restock", h.Restock)
		r.Get("/{product_id}", h.GetAvailability)
	})

	return r
}
