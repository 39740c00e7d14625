// Package handlers provides HTTP handlers for the committee signal.
package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/history"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/signal"
	"github.com/rs/zerolog"
)

// Handler handles signal HTTP requests
type Handler struct {
	service *signal.Service
	log     zerolog.Logger
}

// NewHandler creates a new signal handler
func NewHandler(service *signal.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "signal").Logger(),
	}
}

func (h *Handler) kind(w http.ResponseWriter, r *http.Request) (signal.ScoreKind, bool) {
	kind, err := signal.ParseScoreKind(r.URL.Query().Get("kind"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return kind, true
}

// HandleSignal handles GET /api/signal
// Optional ?kind=score|policy_score|balance_sheet_score and ?as_of=YYYY-MM-DD.
func (h *Handler) HandleSignal(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	var (
		sig signal.Signal
		err error
	)
	if asOf := r.URL.Query().Get("as_of"); asOf != "" {
		if _, perr := time.Parse(history.DateLayout, asOf); perr != nil {
			h.writeError(w, http.StatusBadRequest, "as_of must be YYYY-MM-DD")
			return
		}
		sig, err = h.service.ComputeAsOf(r.Context(), kind, asOf)
	} else {
		sig, err = h.service.Compute(r.Context(), kind)
	}
	if err != nil {
		h.log.Error().Err(err).Str("kind", string(kind)).Msg("Failed to compute signal")
		h.writeError(w, http.StatusInternalServerError, "failed to compute signal")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": sig,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"scale":     h.service.Scale(),
		},
	})
}

// HandleDrift handles GET /api/signal/drift
// Optional ?since=YYYY-MM-DD; defaults to the previous meeting.
func (h *Handler) HandleDrift(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
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

	drift, err := h.service.Drift(r.Context(), kind, since)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute drift")
		h.writeError(w, http.StatusInternalServerError, "failed to compute drift")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": drift,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleAction handles GET /api/signal/action?score=X
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	score, err := strconv.ParseFloat(r.URL.Query().Get("score"), 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		h.writeError(w, http.StatusBadRequest, "score must be a number")
		return
	}
	scale := h.service.Scale()
	if math.Abs(score) > scale.Bound() {
		h.writeError(w, http.StatusBadRequest, "score is outside the configured scale")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": h.service.Action(score),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleDecisions handles GET /api/signal/decisions
// Optional ?kind= and ?n= (past meetings, default 6).
func (h *Handler) HandleDecisions(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}

	n := signal.DefaultDecisionCount
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	decisions, err := h.service.Decisions(r.Context(), kind, n)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compare signal with decisions")
		h.writeError(w, http.StatusInternalServerError, "failed to compare signal with decisions")
		return
	}

	matched := 0
	for _, d := range decisions {
		if d.Match {
			matched++
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": decisions,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(decisions),
			"matched":   matched,
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
