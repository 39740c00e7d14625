package stance

// Lean is a participant's static prior per dimension, on the same scale as
// the scores it is blended with.
type Lean struct {
	Policy       float64 `json:"policy"`
	BalanceSheet float64 `json:"balance_sheet"`
}

// Overall combines the lean dimensions with the policy weight.
func (l Lean) Overall(w Weights, scale Scale) float64 {
	return scale.Clamp(mix(l.Policy, l.BalanceSheet, w.Policy))
}

// Blended is the per-dimension and overall result of mixing news with the lean.
type Blended struct {
	Overall      float64 `json:"overall"`
	Policy       float64 `json:"policy"`
	BalanceSheet float64 `json:"balance_sheet"`
	// PolicyFromNews and BalanceSheetFromNews report whether a news reading
	// took part, or the lean was used unchanged.
	PolicyFromNews       bool `json:"policy_from_news"`
	BalanceSheetFromNews bool `json:"balance_sheet_from_news"`
}

// Blend mixes each present news reading with the lean. An absent reading
// leaves that dimension equal to the lean, with no arithmetic applied.
func Blend(agg Aggregate, lean Lean, w Weights, scale Scale) Blended {
	out := Blended{
		Policy:       lean.Policy,
		BalanceSheet: lean.BalanceSheet,
	}
	if v, ok := agg.Policy.Get(); ok {
		out.Policy = scale.Clamp(mix(v, lean.Policy, w.News))
		out.PolicyFromNews = true
	}
	if v, ok := agg.BalanceSheet.Get(); ok {
		out.BalanceSheet = scale.Clamp(mix(v, lean.BalanceSheet, w.News))
		out.BalanceSheetFromNews = true
	}
	out.Overall = scale.Clamp(mix(out.Policy, out.BalanceSheet, w.Policy))
	return out
}
