package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the snippet routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/snippets", h.HandleIngest)
	r.Get("/participants/{id}/snippets", h.HandleList)
}
