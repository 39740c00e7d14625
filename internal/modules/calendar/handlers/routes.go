package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the calendar routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calendar", func(r chi.Router) {
		r.Get("/", h.HandleOverview)
		r.Get("/meetings", h.HandleMeetings)
	})
}
