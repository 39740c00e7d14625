package stance

// Label is the three-way stance classification.
type Label string

const (
	LabelHawkish Label = "Hawkish"
	LabelNeutral Label = "Neutral"
	LabelDovish  Label = "Dovish"
)

// Source records where a stance came from.
type Source string

const (
	// SourceLive is a stance blended from scored snippets.
	SourceLive Source = "live"
	// SourceHistoricalLean is a stance taken directly from the lean because no
	// snippet text was available.
	SourceHistoricalLean Source = "historical_lean"
)

