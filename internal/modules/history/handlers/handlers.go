// Package handlers provides HTTP handlers for stance history.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/history"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/rs/zerolog"
)

// Handler handles history HTTP requests
type Handler struct {
	repo   *history.Repository
	roster *participants.Roster
	scale  stance.Scale
	log    zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(repo *history.Repository, roster *participants.Roster, scale stance.Scale, log zerolog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		roster: roster,
		scale:  scale,
		log:    log.With().Str("handler", "history").Logger(),
	}
}

func (h *Handler) participant(w http.ResponseWriter, r *http.Request) (participants.Participant, bool) {
	p, err := h.roster.Resolve(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return participants.Participant{}, false
	}
	return p, true
}

// HandleList handles GET /api/history/{id}
// Optional ?since=YYYY-MM-DD trims the series.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, ok := h.participant(w, r)
	if !ok {
		return
	}

	since := r.URL.Query().Get("since")
	if since != "" {
		if _, err := time.Parse(history.DateLayout, since); err != nil {
			h.writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
	}

	entries, err := h.repo.List(r.Context(), p.ID, since)
	if err != nil {
		h.log.Error().Err(err).Str("participant", p.ID).Msg("Failed to list history")
		h.writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"participant": p.ID,
			"history":     entries,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(entries),
		},
	})
}

// HandleTrend handles GET /api/history/{id}/trend
// Optional ?period=N sets the EMA period.
func (h *Handler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	p, ok := h.participant(w, r)
	if !ok {
		return
	}

	period := history.DefaultTrendPeriod
	if raw := r.URL.Query().Get("period"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 2 {
			h.writeError(w, http.StatusBadRequest, "period must be an integer of at least 2")
			return
		}
		period = n
	}

	entries, err := h.repo.List(r.Context(), p.ID, "")
	if err != nil {
		h.log.Error().Err(err).Str("participant", p.ID).Msg("Failed to load history")
		h.writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	trend, err := history.ComputeTrend(p.ID, entries, period, h.scale)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": trend,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleRuns handles GET /api/history/runs
func (h *Handler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.repo.ListRuns(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		h.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": runs,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(runs),
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
