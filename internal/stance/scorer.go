package stance

import (
	"strings"
)

// DimensionScore is the keyword score of one text on one dimension.
type DimensionScore struct {
	Raw            float64        `json:"raw"`
	Confidence     float64        `json:"confidence"`
	HawkishTotal   float64        `json:"hawkish_total"`
	DovishTotal    float64        `json:"dovish_total"`
	HawkishMatches map[string]int `json:"hawkish_matches,omitempty"`
	DovishMatches  map[string]int `json:"dovish_matches,omitempty"`
}

// MatchCount returns the number of phrase occurrences on both sides.
func (d DimensionScore) MatchCount() int {
	n := 0
	for _, c := range d.HawkishMatches {
		n += c
	}
	for _, c := range d.DovishMatches {
		n += c
	}
	return n
}

// Normalize lowercases text, collapses whitespace runs to a single space and
// trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ScoreDimension scores already-normalized text against one dictionary.
// Occurrences are counted as non-overlapping exact phrase matches, so
// "tightening" also matches the entry "tighten".
func ScoreDimension(normalized string, dict Dictionary, scale Scale) DimensionScore {
	var out DimensionScore
	if normalized == "" {
		return out
	}

	for _, t := range dict {
		if t.Phrase == "" {
			continue
		}
		n := strings.Count(normalized, t.Phrase)
		if n == 0 {
			continue
		}
		switch t.Direction {
		case DirectionHawkish:
			out.HawkishTotal += t.Weight * float64(n)
			if out.HawkishMatches == nil {
				out.HawkishMatches = make(map[string]int)
			}
			out.HawkishMatches[t.Phrase] += n
		case DirectionDovish:
			out.DovishTotal += t.Weight * float64(n)
			if out.DovishMatches == nil {
				out.DovishMatches = make(map[string]int)
			}
			out.DovishMatches[t.Phrase] += n
		}
	}

	total := out.HawkishTotal + out.DovishTotal
	if total == 0 {
		return out
	}
	out.Raw = scale.Clamp(scale.Bound() * ((out.HawkishTotal - out.DovishTotal) / total))
	out.Confidence = min(total/ConfidenceSaturation, 1.0)
	return out
}

// Scorer scores a text on one dimension.
type Scorer interface {
	Score(text string, dict Dictionary) (DimensionScore, error)
}

// KeywordScorer is the dictionary phrase-count scorer. It never fails.
type KeywordScorer struct {
	Scale Scale
}

// NewKeywordScorer creates a keyword scorer for the given scale.
func NewKeywordScorer(scale Scale) *KeywordScorer {
	return &KeywordScorer{Scale: scale}
}

// Score normalizes text and scores it against dict.
func (k *KeywordScorer) Score(text string, dict Dictionary) (DimensionScore, error) {
	return ScoreDimension(Normalize(text), dict, k.Scale), nil
}

// DimensionScorer is implemented by scorers that need to know which
// dimension dict belongs to, such as model-backed scorers that rate both
// dimensions in one call.
type DimensionScorer interface {
	ScoreOn(text string, dim Dimension, dict Dictionary) (DimensionScore, error)
}

// ScoreOn scores text with s, passing dim along when s accepts it.
func ScoreOn(s Scorer, text string, dim Dimension, dict Dictionary) (DimensionScore, error) {
	if ds, ok := s.(DimensionScorer); ok {
		return ds.ScoreOn(text, dim, dict)
	}
	return s.Score(text, dict)
}
