package signal

import (
	"math"

	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/calendar"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
)

// Action directions, the same words a meeting decision is classified with.
const (
	DirectionEasing     = calendar.DirectionEasing
	DirectionNeutral    = calendar.DirectionNeutral
	DirectionTightening = calendar.DirectionTightening
)

// Action is the rate move a committee score implies. ProjectedRate is the
// policy rate after the move; it is set only for a move when the rate in
// force is known.
type Action struct {
	Action        string              `json:"action"`
	Direction     string              `json:"direction"`
	MagnitudeBP   int                 `json:"magnitude_bp"`
	Confidence    string              `json:"confidence"`
	ProjectedRate *calendar.RateRange `json:"projected_rate,omitempty"`
}

// Project returns a with ProjectedRate shifted from current by the move.
// Leans count as a quarter point. A hold projects nothing.
func (a Action) Project(current calendar.RateRange) Action {
	if a.MagnitudeBP <= 0 || a.Direction == DirectionNeutral {
		return a
	}
	bp := a.MagnitudeBP
	if a.Direction == DirectionEasing {
		bp = -bp
	}
	projected := current.Shift(bp)
	a.ProjectedRate = &projected
	return a
}

type band struct {
	min, max    float64
	action      string
	direction   string
	magnitudeBP int
}

// Bands are written on the +/-5 scale and rescaled to the configured one.
const bandScale = 5.0

var actionBands = []band{
	{-5.0, -3.5, "Cut 50bp", DirectionEasing, 50},
	{-3.5, -2.0, "Cut 25bp", DirectionEasing, 25},
	{-2.0, -0.5, "Lean Cut", DirectionEasing, 25},
	{-0.5, 0.5, "Hold", DirectionNeutral, 0},
	{0.5, 2.0, "Lean Hike", DirectionTightening, 25},
	{2.0, 3.5, "Hike 25bp", DirectionTightening, 25},
	{3.5, 5.0, "Hike 50bp", DirectionTightening, 50},
}

// ImpliedAction maps a weighted committee score on scale to an action.
// Bands are half-open [min, max); a score at the top of the scale maps to
// the largest hike.
func ImpliedAction(score float64, scale stance.Scale) Action {
	unit := scale.Bound() / bandScale
	out := Action{Action: "Hold", Direction: DirectionNeutral}

	matched := false
	for _, b := range actionBands {
		if score >= b.min*unit && score < b.max*unit {
			out.Action, out.Direction, out.MagnitudeBP = b.action, b.direction, b.magnitudeBP
			matched = true
			break
		}
	}
	if !matched && score >= 3.5*unit {
		out.Action, out.Direction, out.MagnitudeBP = "Hike 50bp", DirectionTightening, 50
	}

	// Clear holds and strong moves are high confidence; the lean zone is not.
	abs := math.Abs(score)
	if abs < 0.5*unit || abs >= 2.0*unit {
		out.Confidence = "high"
	} else {
		out.Confidence = "moderate"
	}
	return out
}
