package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the tracker routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tracker", func(r chi.Router) {
		r.Post("/run", h.HandleRunAll)
		r.Post("/run/{id}", h.HandleRunParticipant)
		r.Post("/classify", h.HandleClassify)
	})
}
