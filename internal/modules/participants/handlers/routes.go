package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the participant routes. Routes are flat so other
// modules can add /participants/{id}/... endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/participants", h.HandleList)
	r.Get("/participants/{id}", h.HandleGet)
}
