// Package signal turns participant stances into a role-weighted committee
// signal, the rate action it implies, and its drift over time.
package signal

import (
	"fmt"
	"sort"

	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/calendar"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/history"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ScoreKind selects which stance score feeds the signal.
type ScoreKind string

const (
	KindOverall      ScoreKind = "score"
	KindPolicy       ScoreKind = "policy_score"
	KindBalanceSheet ScoreKind = "balance_sheet_score"
)

// ParseScoreKind accepts the kind names used in query strings. Empty means
// the overall score.
func ParseScoreKind(s string) (ScoreKind, error) {
	switch ScoreKind(s) {
	case "", KindOverall:
		return KindOverall, nil
	case KindPolicy, KindBalanceSheet:
		return ScoreKind(s), nil
	default:
		return "", fmt.Errorf("unknown score kind %q", s)
	}
}

// Contribution is one participant's share of the committee signal.
type Contribution struct {
	ParticipantID        string            `json:"participant_id"`
	Name                 string            `json:"name"`
	Role                 participants.Role `json:"role"`
	Voter                bool              `json:"voter"`
	Score                float64           `json:"score"`
	Weight               float64           `json:"weight"`
	WeightedContribution float64           `json:"weighted_contribution"`
	Source               stance.Source     `json:"source"`
}

// Signal is the committee-level reading for one score kind.
type Signal struct {
	Kind          ScoreKind      `json:"kind"`
	WeightedScore float64        `json:"weighted_score"`
	SimpleAverage float64        `json:"simple_average"`
	VoterAverage  float64        `json:"voter_average"`
	TotalWeight   float64        `json:"total_weight"`
	Label         stance.Label   `json:"label"`
	Action        Action         `json:"implied_action"`
	Contributions []Contribution `json:"contributions"`
}

func entryScore(e history.Entry, kind ScoreKind) float64 {
	switch kind {
	case KindPolicy:
		return e.PolicyScore
	case KindBalanceSheet:
		return e.BalanceSheetScore
	default:
		return e.Score
	}
}

func leanScore(p participants.Participant, kind ScoreKind, w stance.Weights, scale stance.Scale) float64 {
	lean := p.Lean(scale)
	switch kind {
	case KindPolicy:
		return lean.Policy
	case KindBalanceSheet:
		return lean.BalanceSheet
	default:
		return lean.Overall(w, scale)
	}
}

// Weigh builds the signal for members from their recorded entries. Members
// without an entry contribute their historical lean.
func Weigh(members []participants.Participant, entries map[string]history.Entry, kind ScoreKind, w stance.Weights, scale stance.Scale) Signal {
	out := Signal{Kind: kind, Contributions: make([]Contribution, 0, len(members))}

	scores := make([]float64, 0, len(members))
	weights := make([]float64, 0, len(members))
	var voterScores []float64

	for _, p := range members {
		c := Contribution{
			ParticipantID: p.ID,
			Name:          p.Name,
			Role:          p.Role,
			Voter:         p.Voter,
			Weight:        participants.RoleWeight(p),
		}
		if e, ok := entries[p.ID]; ok {
			c.Score = entryScore(e, kind)
			c.Source = e.Source
		} else {
			c.Score = leanScore(p, kind, w, scale)
			c.Source = stance.SourceHistoricalLean
		}
		c.WeightedContribution = c.Score * c.Weight

		scores = append(scores, c.Score)
		weights = append(weights, c.Weight)
		if p.Voter {
			voterScores = append(voterScores, c.Score)
		}
		out.Contributions = append(out.Contributions, c)
	}

	if len(scores) > 0 {
		out.SimpleAverage = stat.Mean(scores, nil)
		out.TotalWeight = floats.Sum(weights)
		if out.TotalWeight > 0 {
			out.WeightedScore = stat.Mean(scores, weights)
		}
	}
	if len(voterScores) > 0 {
		out.VoterAverage = stat.Mean(voterScores, nil)
	}

	sort.SliceStable(out.Contributions, func(i, j int) bool {
		return out.Contributions[i].WeightedContribution > out.Contributions[j].WeightedContribution
	})

	out.Label = scale.Label(out.WeightedScore)
	out.Action = ImpliedAction(out.WeightedScore, scale)
	return out
}

// Drift compares the signal at a reference date with the current one. The
// previous meeting fields are set when since defaulted to that meeting.
type Drift struct {
	Kind                ScoreKind `json:"kind"`
	Since               string    `json:"since"`
	PreviousMeetingDate string    `json:"previous_meeting_date,omitempty"`
	PreviousDecision    string    `json:"previous_decision,omitempty"`
	PreviousSignal      float64   `json:"previous_signal"`
	CurrentSignal       float64   `json:"current_signal"`
	Drift               float64   `json:"drift"`
	Direction           string    `json:"drift_direction"`
}

// NewDrift classifies the move from previous to current on scale.
func NewDrift(kind ScoreKind, since string, previous, current float64, scale stance.Scale) Drift {
	d := current - previous
	return Drift{
		Kind:           kind,
		Since:          since,
		PreviousSignal: previous,
		CurrentSignal:  current,
		Drift:          d,
		Direction:      history.ShiftDirection(d, scale),
	}
}

// Decision is the signal on a past meeting's decision day set against the
// decision taken.
type Decision struct {
	MeetingDate      string  `json:"meeting_date"`
	Decision         string  `json:"decision"`
	RateRange        string  `json:"rate_range"`
	VoteSplit        string  `json:"vote_split,omitempty"`
	SignalScore      float64 `json:"signal_score"`
	ImpliedAction    string  `json:"implied_action"`
	ImpliedDirection string  `json:"implied_direction"`
	Match            bool    `json:"match"`
	StatementNote    string  `json:"statement_note,omitempty"`
}

// NewDecision pairs meeting m with the signal score and action as of its
// decision day. Match means the action points the way the decision went.
func NewDecision(m calendar.Meeting, score float64, action Action) Decision {
	d := Decision{
		MeetingDate:      m.EndDate,
		Decision:         m.Decision,
		RateRange:        "N/A",
		VoteSplit:        m.VoteSplit,
		SignalScore:      score,
		ImpliedAction:    action.Action,
		ImpliedDirection: action.Direction,
		Match:            action.Direction == m.Direction(),
		StatementNote:    m.Note,
	}
	if m.Rate != nil {
		d.RateRange = m.Rate.String()
	}
	return d
}
