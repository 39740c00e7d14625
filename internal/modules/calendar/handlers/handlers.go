// Package handlers provides HTTP handlers for the meeting calendar.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/calendar"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants"
	"github.com/rs/zerolog"
)

// Handler handles calendar HTTP requests
type Handler struct {
	calendar *calendar.Calendar
	clock    clockwork.Clock
	log      zerolog.Logger
}

// NewHandler creates a new calendar handler
func NewHandler(cal *calendar.Calendar, clock clockwork.Clock, log zerolog.Logger) *Handler {
	return &Handler{
		calendar: cal,
		clock:    clock,
		log:      log.With().Str("handler", "calendar").Logger(),
	}
}

// Overview is where today sits in the meeting cycle.
type Overview struct {
	Committee       participants.Committee `json:"committee"`
	Today           string                 `json:"today"`
	NextMeeting     *calendar.Meeting      `json:"next_meeting"`
	DaysUntilNext   *int                   `json:"days_until_next"`
	PreviousMeeting *calendar.Meeting      `json:"previous_meeting"`
	InBlackout      bool                   `json:"in_blackout"`
	BlackoutStart   string                 `json:"blackout_start,omitempty"`
	CurrentRate     *calendar.RateRange    `json:"current_rate"`
}

// HandleOverview handles GET /api/calendar
func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()
	out := Overview{
		Committee:  h.calendar.Committee(),
		Today:      now.UTC().Format(calendar.DateLayout),
		InBlackout: h.calendar.InBlackout(now),
	}
	if next, ok := h.calendar.Next(now); ok {
		out.NextMeeting = &next
		out.BlackoutStart = calendar.BlackoutStart(next).Format(calendar.DateLayout)
	}
	if days, ok := h.calendar.DaysUntilNext(now); ok {
		out.DaysUntilNext = &days
	}
	if prev, ok := h.calendar.Previous(now); ok {
		out.PreviousMeeting = &prev
	}
	if rate, ok := h.calendar.CurrentRate(now); ok {
		out.CurrentRate = &rate
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": out,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleMeetings handles GET /api/calendar/meetings
// Optional ?from=YYYY-MM-DD and ?to=YYYY-MM-DD bound the decision day.
func (h *Handler) HandleMeetings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	for _, name := range []string{"from", "to"} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		if _, err := time.Parse(calendar.DateLayout, v); err != nil {
			h.writeError(w, http.StatusBadRequest, name+" must be YYYY-MM-DD")
			return
		}
	}

	meetings := h.calendar.InRange(from, to)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"committee": h.calendar.Committee(),
			"meetings":  meetings,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(meetings),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
