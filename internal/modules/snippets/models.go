// Package snippets stores the text items about participants that external
// fetchers deliver, and serves them back for scoring.
package snippets

import (
	"time"

	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
)

// Snippet is one unit of source text about a participant.
type Snippet struct {
	ID            int64      `json:"id"`
	ParticipantID string     `json:"participant_id"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	Source        string     `json:"source"`
	URL           string     `json:"url"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	FetchedAt     time.Time  `json:"fetched_at"`
}

// Document converts the snippet for evidence collection.
func (s Snippet) Document() stance.Document {
	return stance.Document{Title: s.Title, Body: s.Body, URL: s.URL, Source: s.Source}
}

// Documents converts every snippet for evidence collection.
func Documents(items []Snippet) []stance.Document {
	out := make([]stance.Document, len(items))
	for i, s := range items {
		out[i] = s.Document()
	}
	return out
}
