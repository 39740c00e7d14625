package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	counts map[string]int
	err    error
}

func (f fakeCounter) CountByParticipant(context.Context) (map[string]int, error) {
	return f.counts, f.err
}

func newRouter(t *testing.T, committee participants.Committee) chi.Router {
	t.Helper()
	return newRouterWithCounts(t, committee, nil)
}

func newRouterWithCounts(t *testing.T, committee participants.Committee, counts SnippetCounter) chi.Router {
	t.Helper()
	roster, err := participants.NewRoster(committee)
	require.NoError(t, err)

	handler := NewHandler(roster, stance.DefaultScale, counts, zerolog.New(nil).Level(zerolog.Disabled))
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func TestHandleList(t *testing.T) {
	router := newRouter(t, participants.CommitteeFOMC)

	tests := []struct {
		name  string
		url   string
		count int
	}{
		{"all", "/participants", 19},
		{"voters only", "/participants?voters=true", 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			var response struct {
				Data struct {
					Committee    string            `json:"committee"`
					Participants []ParticipantView `json:"participants"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, "fomc", response.Data.Committee)
			assert.Len(t, response.Data.Participants, tt.count)
		})
	}
}

func TestHandleGet(t *testing.T) {
	router := newRouter(t, participants.CommitteeBoE)

	tests := []struct {
		name           string
		id             string
		expectedStatus int
		validate       func(*testing.T, ParticipantView)
	}{
		{
			name:           "by id",
			id:             "pill",
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, v ParticipantView) {
				assert.Equal(t, "Huw Pill", v.Name)
				assert.Equal(t, 1.25, v.Weight)
				assert.InDelta(t, 1.0, v.Lean.Policy, 1e-12)
			},
		},
		{
			name:           "by partial name",
			id:             "catherine",
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, v ParticipantView) {
				assert.Equal(t, "mann", v.ID)
			},
		},
		{
			name:           "unknown",
			id:             "powell",
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/participants/"+tt.id, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validate != nil {
				var response struct {
					Data ParticipantView `json:"data"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				tt.validate(t, response.Data)
			}
		})
	}
}

func TestSnippetCounts(t *testing.T) {
	decode := func(t *testing.T, router chi.Router, url string) map[string]int {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, url, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data struct {
				Participants []ParticipantView `json:"participants"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		out := make(map[string]int)
		for _, v := range response.Data.Participants {
			out[v.ID] = v.SnippetCount
		}
		return out
	}

	router := newRouterWithCounts(t, participants.CommitteeBoE, fakeCounter{counts: map[string]int{"pill": 3, "mann": 1}})
	got := decode(t, router, "/participants")
	assert.Equal(t, 3, got["pill"])
	assert.Equal(t, 1, got["mann"])
	assert.Equal(t, 0, got["bailey"])

	req := httptest.NewRequest(http.MethodGet, "/participants/pill", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var single struct {
		Data ParticipantView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &single))
	assert.Equal(t, 3, single.Data.SnippetCount)

	failing := newRouterWithCounts(t, participants.CommitteeBoE, fakeCounter{err: errors.New("db closed")})
	for id, n := range decode(t, failing, "/participants") {
		assert.Zero(t, n, id)
	}
}
