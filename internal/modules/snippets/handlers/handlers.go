// Package handlers provides HTTP handlers for snippet ingestion and listing.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/neoyipeng2018/central-bank-tracker/internal/metrics"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/snippets"
	"github.com/rs/zerolog"
)

// maxBatch bounds a single ingest request.
const maxBatch = 1000

// Handler handles snippet HTTP requests
type Handler struct {
	repo    *snippets.Repository
	roster  *participants.Roster
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewHandler creates a new snippets handler. m may be nil.
func NewHandler(repo *snippets.Repository, roster *participants.Roster, m *metrics.Metrics, log zerolog.Logger) *Handler {
	return &Handler{
		repo:    repo,
		roster:  roster,
		metrics: m,
		log:     log.With().Str("handler", "snippets").Logger(),
	}
}

// SnippetInput is one item of an ingest request. Participant may be an id
// or a partial name.
type SnippetInput struct {
	Participant string     `json:"participant"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// IngestRequest is the body of POST /api/snippets
type IngestRequest struct {
	Snippets []SnippetInput `json:"snippets"`
}

// IngestResult reports how many snippets were new.
type IngestResult struct {
	Received   int `json:"received"`
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
}

func (h *Handler) toSnippets(in []SnippetInput) ([]snippets.Snippet, error) {
	out := make([]snippets.Snippet, 0, len(in))
	for i, item := range in {
		p, err := h.roster.Resolve(item.Participant)
		if err != nil {
			return nil, fmt.Errorf("snippet %d: %w", i, err)
		}
		if strings.TrimSpace(item.Title) == "" && strings.TrimSpace(item.Body) == "" {
			return nil, fmt.Errorf("snippet %d: title and body are both empty", i)
		}
		out = append(out, snippets.Snippet{
			ParticipantID: p.ID,
			Title:         item.Title,
			Body:          item.Body,
			Source:        item.Source,
			URL:           item.URL,
			PublishedAt:   item.PublishedAt,
		})
	}
	return out, nil
}

// HandleIngest handles POST /api/snippets
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Snippets) == 0 {
		h.writeError(w, http.StatusBadRequest, "no snippets supplied")
		return
	}
	if len(req.Snippets) > maxBatch {
		h.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d snippets per request", maxBatch))
		return
	}

	items, err := h.toSnippets(req.Snippets)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, err := h.repo.AddBatch(r.Context(), items)
	if err != nil {
		h.log.Error().Err(err).Int("count", len(items)).Msg("Failed to store snippets")
		h.writeError(w, http.StatusInternalServerError, "failed to store snippets")
		return
	}
	h.metrics.ObserveIngest(added, len(items)-added)

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": IngestResult{
			Received:   len(items),
			Added:      added,
			Duplicates: len(items) - added,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleList handles GET /api/participants/{id}/snippets
// Optional ?since=YYYY-MM-DD limits the result to snippets fetched on or after
// that day.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, err := h.roster.Resolve(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, participants.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "failed to resolve participant")
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = time.Parse("2006-01-02", raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
	}

	items, err := h.repo.ListForParticipant(r.Context(), p.ID, since)
	if err != nil {
		h.log.Error().Err(err).Str("participant", p.ID).Msg("Failed to list snippets")
		h.writeError(w, http.StatusInternalServerError, "failed to list snippets")
		return
	}
	if items == nil {
		items = []snippets.Snippet{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"participant": p.ID,
			"snippets":    items,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(items),
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
