package history

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"gonum.org/v1/gonum/stat"
)

// DefaultTrendPeriod is the EMA period used when the caller gives none.
const DefaultTrendPeriod = 5

// driftRatio is the share of the scale a move must exceed to count as a shift.
const driftRatio = 0.06

// Trend directions.
const (
	TrendHawkish = "hawkish shift"
	TrendDovish  = "dovish shift"
	TrendStable  = "stable"
)

// Trend smooths a participant's recent scores.
type Trend struct {
	ParticipantID string  `json:"participant_id"`
	Period        int     `json:"period"`
	Points        int     `json:"points"`
	Latest        float64 `json:"latest"`
	EMA           float64 `json:"ema"`
	// Momentum is the latest score minus the EMA.
	Momentum  float64 `json:"momentum"`
	Direction string  `json:"direction"`
}

// ShiftThreshold returns the score move that counts as a shift on scale.
func ShiftThreshold(scale stance.Scale) float64 {
	return driftRatio * scale.Bound()
}

// ShiftDirection classifies a score change against the shift threshold.
func ShiftDirection(change float64, scale stance.Scale) string {
	t := ShiftThreshold(scale)
	switch {
	case change > t:
		return TrendHawkish
	case change < -t:
		return TrendDovish
	default:
		return TrendStable
	}
}

// ema returns the last exponential moving average of scores. With fewer
// points than the period it falls back to the plain mean.
func ema(scores []float64, period int) float64 {
	if len(scores) < period {
		return stat.Mean(scores, nil)
	}
	out := talib.Ema(scores, period)
	last := out[len(out)-1]
	if math.IsNaN(last) {
		return stat.Mean(scores[len(scores)-period:], nil)
	}
	return last
}

// ComputeTrend builds the trend of entries, which must be ordered oldest first.
func ComputeTrend(participantID string, entries []Entry, period int, scale stance.Scale) (Trend, error) {
	if period < 2 {
		return Trend{}, fmt.Errorf("trend period must be at least 2, got %d", period)
	}
	if len(entries) == 0 {
		return Trend{}, fmt.Errorf("%w: no history for %s", ErrNotFound, participantID)
	}

	scores := make([]float64, len(entries))
	for i, e := range entries {
		scores[i] = e.Score
	}

	avg := ema(scores, period)
	latest := scores[len(scores)-1]
	momentum := latest - avg
	return Trend{
		ParticipantID: participantID,
		Period:        period,
		Points:        len(scores),
		Latest:        latest,
		EMA:           avg,
		Momentum:      momentum,
		Direction:     ShiftDirection(momentum, scale),
	}, nil
}
