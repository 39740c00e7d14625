// Package handlers provides HTTP handlers for tracker runs and one-off
// classification.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/neoyipeng2018/central-bank-tracker/internal/metrics"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/tracker"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// maxClassifyBytes bounds the classify request body.
const maxClassifyBytes = 64 << 10

// Handler handles tracker HTTP requests
type Handler struct {
	service *tracker.Service
	limiter *rate.Limiter
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewHandler creates a new tracker handler. limiter throttles classify
// requests; nil disables throttling.
func NewHandler(service *tracker.Service, limiter *rate.Limiter, m *metrics.Metrics, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		limiter: limiter,
		metrics: m,
		log:     log.With().Str("handler", "tracker").Logger(),
	}
}

// HandleRunAll handles POST /api/tracker/run
func (h *Handler) HandleRunAll(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.RunAll(r.Context())
	if err != nil {
		if errors.Is(err, tracker.ErrRunInProgress) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.log.Error().Err(err).Str("run_id", run.ID).Msg("Tracker run failed")
		h.writeError(w, http.StatusInternalServerError, "tracker run failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": run,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleRunParticipant handles POST /api/tracker/run/{id}
func (h *Handler) HandleRunParticipant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.service.Process(r.Context(), id)
	if err != nil {
		if errors.Is(err, participants.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error().Err(err).Str("participant", id).Msg("Failed to score participant")
		h.writeError(w, http.StatusInternalServerError, "failed to score participant")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": res,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// ClassifyRequest is the body of POST /api/tracker/classify
type ClassifyRequest struct {
	Text string `json:"text"`
}

// HandleClassify handles POST /api/tracker/classify
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow() {
		h.metrics.ObserveClassifyRejected()
		w.Header().Set("Retry-After", "1")
		h.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req ClassifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClassifyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.service.Classify(req.Text)
	if err != nil {
		if errors.Is(err, tracker.ErrEmptyText) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "failed to classify text")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": c,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
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
