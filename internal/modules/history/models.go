// Package history keeps the per-participant stance time series and the log
// of scoring runs.
package history

import (
	"errors"
	"time"

	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
)

// DateLayout is the storage format of entry dates.
const DateLayout = "2006-01-02"

// ErrNotFound is returned when no entry matches a lookup.
var ErrNotFound = errors.New("history entry not found")

// Entry is one participant's stance on one date.
type Entry struct {
	ParticipantID     string            `json:"participant_id"`
	Date              string            `json:"date"`
	Score             float64           `json:"score"`
	Label             stance.Label      `json:"label"`
	PolicyScore       float64           `json:"policy_score"`
	PolicyLabel       stance.Label      `json:"policy_label"`
	BalanceSheetScore float64           `json:"balance_sheet_score"`
	BalanceSheetLabel stance.Label      `json:"balance_sheet_label"`
	Source            stance.Source     `json:"source"`
	SnippetCount      int               `json:"snippet_count"`
	Evidence          []stance.Evidence `json:"evidence"`
	RunID             string            `json:"run_id,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// FromStance builds the entry recorded for s.
func FromStance(s stance.Stance, evidence []stance.Evidence, runID string) Entry {
	if evidence == nil {
		evidence = []stance.Evidence{}
	}
	return Entry{
		ParticipantID:     s.ParticipantID,
		Date:              s.Date.Format(DateLayout),
		Score:             s.Score,
		Label:             s.Label,
		PolicyScore:       s.PolicyScore,
		PolicyLabel:       s.PolicyLabel,
		BalanceSheetScore: s.BalanceSheetScore,
		BalanceSheetLabel: s.BalanceSheetLabel,
		Source:            s.Source,
		SnippetCount:      s.SnippetCount,
		Evidence:          evidence,
		RunID:             runID,
	}
}

// Run summarizes one scoring pass over the committee.
type Run struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Participants  int       `json:"participants"`
	Hawkish       int       `json:"hawkish"`
	Neutral       int       `json:"neutral"`
	Dovish        int       `json:"dovish"`
	LeanFallbacks int       `json:"lean_fallbacks"`
	Failed        int       `json:"failed"`
}

// Count adds one stance outcome to the run totals.
func (r *Run) Count(label stance.Label, source stance.Source) {
	r.Participants++
	switch label {
	case stance.LabelHawkish:
		r.Hawkish++
	case stance.LabelDovish:
		r.Dovish++
	default:
		r.Neutral++
	}
	if source == stance.SourceHistoricalLean {
		r.LeanFallbacks++
	}
}
