package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the signal routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/signal", func(r chi.Router) {
		r.Get("/", h.HandleSignal)
		r.Get("/drift", h.HandleDrift)
		r.Get("/action", h.HandleAction)
		r.Get("/decisions", h.HandleDecisions)
	})
}
