// Package handlers provides HTTP handlers for the committee roster.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/rs/zerolog"
)

// SnippetCounter reports how many snippets are stored per participant.
type SnippetCounter interface {
	CountByParticipant(ctx context.Context) (map[string]int, error)
}

// Handler handles participant HTTP requests
type Handler struct {
	roster *participants.Roster
	scale  stance.Scale
	counts SnippetCounter
	log    zerolog.Logger
}

// NewHandler creates a new participants handler. counts may be nil, in which
// case every snippet count is zero.
func NewHandler(roster *participants.Roster, scale stance.Scale, counts SnippetCounter, log zerolog.Logger) *Handler {
	return &Handler{
		roster: roster,
		scale:  scale,
		counts: counts,
		log:    log.With().Str("handler", "participants").Logger(),
	}
}

// ParticipantView is a participant with its lean on the configured scale,
// its influence weight and the number of stored snippets about it.
type ParticipantView struct {
	participants.Participant
	Lean         stance.Lean `json:"lean"`
	Weight       float64     `json:"weight"`
	SnippetCount int         `json:"snippet_count"`
}

func (h *Handler) view(p participants.Participant, counts map[string]int) ParticipantView {
	return ParticipantView{
		Participant:  p,
		Lean:         p.Lean(h.scale),
		Weight:       participants.RoleWeight(p),
		SnippetCount: counts[p.ID],
	}
}

// snippetCounts never fails the request; a storage error leaves every count
// at zero.
func (h *Handler) snippetCounts(ctx context.Context) map[string]int {
	if h.counts == nil {
		return nil
	}
	counts, err := h.counts.CountByParticipant(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to count snippets")
		return nil
	}
	return counts
}

// HandleList handles GET /api/participants
// Optional ?voters=true restricts the list to voting members.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	members := h.roster.All()
	if r.URL.Query().Get("voters") == "true" {
		members = h.roster.Voters()
	}

	counts := h.snippetCounts(r.Context())
	views := make([]ParticipantView, 0, len(members))
	for _, p := range members {
		views = append(views, h.view(p, counts))
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"committee":    h.roster.Committee(),
			"participants": views,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(views),
		},
	})
}

// HandleGet handles GET /api/participants/{id}
// The id may also be a partial name.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.roster.Resolve(id)
	if err != nil {
		if errors.Is(err, participants.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error().Err(err).Str("participant", id).Msg("Failed to resolve participant")
		h.writeError(w, http.StatusInternalServerError, "failed to resolve participant")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": h.view(p, h.snippetCounts(r.Context())),
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
