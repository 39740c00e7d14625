package stance

import (
	"encoding/json"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Reading is an optional aggregated score. An absent reading means no snippet
// produced any signal, which is different from a neutral 0.0.
type Reading struct {
	value   float64
	present bool
}

// Present returns a reading holding v.
func Present(v float64) Reading {
	return Reading{value: v, present: true}
}

// Absent returns the empty reading.
func Absent() Reading {
	return Reading{}
}

// Present reports whether the reading holds a value.
func (r Reading) Present() bool {
	return r.present
}

// Get returns the value and whether it is present.
func (r Reading) Get() (float64, bool) {
	return r.value, r.present
}

// Or returns the value, or fallback when absent.
func (r Reading) Or(fallback float64) float64 {
	if !r.present {
		return fallback
	}
	return r.value
}

// MarshalJSON encodes an absent reading as null.
func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.present {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}

// UnmarshalJSON decodes null as absent.
func (r *Reading) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Reading{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Present(v)
	return nil
}

// Aggregate is the confidence-weighted news signal of one participant.
type Aggregate struct {
	Policy       Reading `json:"policy"`
	BalanceSheet Reading `json:"balance_sheet"`
	SnippetCount int     `json:"snippet_count"`

	// Overall aggregates the combined snippet scores. It is reported but not
	// used by Blend, which recombines the blended dimensions.
	Overall Reading `json:"overall"`
}

// AggregateScores combines per-snippet scores. Policy uses every snippet's
// policy score and confidence; balance sheet uses only snippets with a
// balance-sheet match. The result does not depend on input order.
func AggregateScores(scores []SnippetScore) Aggregate {
	var (
		policy, policyW []float64
		overall         []float64
		bs, bsW         []float64
	)
	for _, s := range scores {
		policy = append(policy, s.Policy.Raw)
		policyW = append(policyW, s.Policy.Confidence)
		overall = append(overall, s.Overall)
		if s.HasBalanceSheet() {
			bs = append(bs, s.BalanceSheet.Raw)
			bsW = append(bsW, s.BalanceSheet.Confidence)
		}
	}
	return Aggregate{
		Policy:       weightedMean(policy, policyW),
		BalanceSheet: weightedMean(bs, bsW),
		Overall:      weightedMean(overall, policyW),
		SnippetCount: len(scores),
	}
}

func weightedMean(x, w []float64) Reading {
	if len(x) == 0 || floats.Sum(w) <= 0 {
		return Absent()
	}
	return Present(stat.Mean(x, w))
}
