// Package stance implements the hawkish/dovish scoring pipeline: keyword
// scoring of a single snippet per dimension, dimension combination,
// confidence-weighted aggregation across snippets, blending with a
// participant's historical lean, and labelling.
//
// Everything in this package is pure arithmetic over its inputs. No state is
// shared between calls, so participants can be scored concurrently.
package stance

import (
	"errors"
	"fmt"
	"math"
)

// Scale is the symmetric bound of every score: scores live in [-Scale, +Scale].
// Label thresholds and action bands are expressed as fractions of it.
type Scale float64

const (
	// DefaultScale is the +/-5 scale used by the tracker.
	DefaultScale Scale = 5.0
	// UnitScale is the legacy +/-1 scale.
	UnitScale Scale = 1.0

	// ConfidenceSaturation is the weighted hit total at which confidence reaches 1.0.
	ConfidenceSaturation = 5.0

	// LabelThresholdRatio places the Hawkish/Dovish thresholds at 30% of the scale.
	LabelThresholdRatio = 0.3
)

// ErrInvalidScale is returned for a non-positive or non-finite scale.
var ErrInvalidScale = errors.New("invalid scale")

// ParseScale validates a configured scale value.
func ParseScale(v float64) (Scale, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidScale, v)
	}
	return Scale(v), nil
}

// Bound returns the scale as a float64.
func (s Scale) Bound() float64 {
	return float64(s)
}

// Threshold returns T, the symmetric Hawkish/Dovish label threshold.
func (s Scale) Threshold() float64 {
	return LabelThresholdRatio * float64(s)
}

// Clamp limits v to [-Scale, +Scale].
func (s Scale) Clamp(v float64) float64 {
	b := float64(s)
	return math.Max(-b, math.Min(b, v))
}

// FromUnit converts a value on the [-1, 1] unit scale to this scale.
func (s Scale) FromUnit(v float64) float64 {
	return s.Clamp(v * float64(s))
}

// Label maps a score to its categorical label. Exactly +T and -T are Neutral.
func (s Scale) Label(score float64) Label {
	t := s.Threshold()
	switch {
	case score > t:
		return LabelHawkish
	case score < -t:
		return LabelDovish
	default:
		return LabelNeutral
	}
}

// Weights holds the two mixing weights of the pipeline.
type Weights struct {
	// News is the weight of the aggregated news score when blending with the
	// historical lean; the lean gets 1 - News.
	News float64
	// Policy is the weight of the policy dimension in the overall score; the
	// balance-sheet dimension gets 1 - Policy.
	Policy float64
}

// DefaultWeights returns news 0.7 / lean 0.3 and policy 0.7 / balance sheet 0.3.
func DefaultWeights() Weights {
	return Weights{News: 0.7, Policy: 0.7}
}

// Historical is the weight given to the historical lean.
func (w Weights) Historical() float64 {
	return 1 - w.News
}

// BalanceSheet is the weight given to the balance-sheet dimension.
func (w Weights) BalanceSheet() float64 {
	return 1 - w.Policy
}

// Validate checks that both weights lie in [0, 1].
func (w Weights) Validate() error {
	if math.IsNaN(w.News) || w.News < 0 || w.News > 1 {
		return fmt.Errorf("news weight must be in [0,1], got %v", w.News)
	}
	if math.IsNaN(w.Policy) || w.Policy < 0 || w.Policy > 1 {
		return fmt.Errorf("policy weight must be in [0,1], got %v", w.Policy)
	}
	return nil
}

// mix returns a*wa + b*(1-wa).
func mix(a, b, wa float64) float64 {
	return a*wa + b*(1-wa)
}
