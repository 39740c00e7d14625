package stance

// SnippetScore is the per-snippet result on both dimensions.
type SnippetScore struct {
	Overall      float64        `json:"overall"`
	Confidence   float64        `json:"confidence"`
	Policy       DimensionScore `json:"policy"`
	BalanceSheet DimensionScore `json:"balance_sheet"`
}

// HasBalanceSheet reports whether any balance-sheet term matched.
func (s SnippetScore) HasBalanceSheet() bool {
	return s.BalanceSheet.Confidence > 0
}

// Combine merges the two dimension scores of a snippet. The balance-sheet
// dimension only contributes when one of its terms matched; otherwise the
// overall score is the policy score alone. The snippet confidence is the
// policy confidence.
func Combine(policy, bs DimensionScore, w Weights) SnippetScore {
	out := SnippetScore{
		Overall:      policy.Raw,
		Confidence:   policy.Confidence,
		Policy:       policy,
		BalanceSheet: bs,
	}
	if bs.Confidence > 0 {
		out.Overall = mix(policy.Raw, bs.Raw, w.Policy)
	}
	return out
}
