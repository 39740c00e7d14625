// Package calendar holds the policy meeting schedule of each committee with
// the decisions taken so far, and answers date questions against it: the
// previous and next meeting, the pre-meeting blackout and the policy rate in
// force.
package calendar

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DateLayout is the layout of every meeting date.
const DateLayout = "2006-01-02"

// Decision directions, shared with the implied rate action.
const (
	DirectionEasing     = "easing"
	DirectionNeutral    = "neutral"
	DirectionTightening = "tightening"
)

// DecisionHold is a meeting that left the rate unchanged. Moves are written
// as signed basis points, "-25" or "+50".
const DecisionHold = "hold"

// RateRange is the policy rate after a decision, in percent. Committees with
// a single rate have Lower equal to Upper.
type RateRange struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// String renders "4.25%-4.50%", or "3.75%" for a single rate.
func (r RateRange) String() string {
	if r.Lower == r.Upper {
		return fmt.Sprintf("%.2f%%", r.Upper)
	}
	return fmt.Sprintf("%.2f%%-%.2f%%", r.Lower, r.Upper)
}

// Shift moves both bounds by bp basis points, rounded to two decimals.
func (r RateRange) Shift(bp int) RateRange {
	delta := float64(bp) / 100
	return RateRange{
		Lower: math.Round((r.Lower+delta)*100) / 100,
		Upper: math.Round((r.Upper+delta)*100) / 100,
	}
}

// Meeting is one scheduled policy meeting. A meeting without a decision has
// not happened yet, or its outcome has not been recorded.
type Meeting struct {
	StartDate string     `json:"start_date" yaml:"start_date"`
	EndDate   string     `json:"end_date" yaml:"end_date"` // Decision announcement day
	Decision  string     `json:"decision,omitempty" yaml:"decision"`
	Rate      *RateRange `json:"rate,omitempty" yaml:"rate"`
	VoteSplit string     `json:"vote_split,omitempty" yaml:"vote_split"`
	Note      string     `json:"statement_note,omitempty" yaml:"statement_note"`
}

// Decided reports whether the meeting's decision is known.
func (m Meeting) Decided() bool {
	return m.Decision != ""
}

// Direction classifies the decision. Undecided meetings and holds are
// neutral.
func (m Meeting) Direction() string {
	switch {
	case strings.HasPrefix(m.Decision, "-"):
		return DirectionEasing
	case strings.HasPrefix(m.Decision, "+"):
		return DirectionTightening
	default:
		return DirectionNeutral
	}
}

func (m Meeting) validate() error {
	if _, err := parseDate(m.EndDate); err != nil {
		return fmt.Errorf("meeting end_date: %w", err)
	}
	if _, err := parseDate(m.StartDate); err != nil {
		return fmt.Errorf("meeting %s start_date: %w", m.EndDate, err)
	}
	if m.StartDate > m.EndDate {
		return fmt.Errorf("meeting %s starts after it ends", m.EndDate)
	}
	switch {
	case m.Decision == "", m.Decision == DecisionHold:
	default:
		bp, err := strconv.Atoi(m.Decision)
		if err != nil || bp == 0 || !strings.ContainsAny(m.Decision[:1], "+-") {
			return fmt.Errorf("meeting %s has decision %q, want hold or signed basis points", m.EndDate, m.Decision)
		}
	}
	if m.Rate != nil && m.Rate.Lower > m.Rate.Upper {
		return fmt.Errorf("meeting %s rate lower bound above upper", m.EndDate)
	}
	return nil
}
