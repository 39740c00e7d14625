package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the stream route. It must be mounted outside
// any request timeout middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream", h.HandleStream)
}
