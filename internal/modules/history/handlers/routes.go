package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/runs", h.HandleRuns)
		r.Get("/{id}", h.HandleList)
		r.Get("/{id}/trend", h.HandleTrend)
	})
}
