package stance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDictionary() Dictionary {
	return Dictionary{
		hawk("raise rates", 1.0),
		hawk("sticky inflation", 0.6),
		dove("cut rates", 1.0),
		dove("labor market softening", 0.5),
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"case folded", "Raise RATES", "raise rates"},
		{"runs collapsed", "raise \n\t  rates", "raise rates"},
		{"trimmed", "  hold  ", "hold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestScoreDimension_NoTermsIsZero(t *testing.T) {
	for _, text := range []string{"", "the committee met on tuesday", "weather was fine"} {
		ds := ScoreDimension(Normalize(text), testDictionary(), DefaultScale)
		assert.Equal(t, 0.0, ds.Raw, text)
		assert.Equal(t, 0.0, ds.Confidence, text)
		assert.Zero(t, ds.MatchCount(), text)
	}
}

func TestScoreDimension_RaiseRatesScenario(t *testing.T) {
	text := "The Fed should raise rates to combat sticky inflation"

	for _, scale := range []Scale{DefaultScale, UnitScale} {
		ds := ScoreDimension(Normalize(text), testDictionary(), scale)
		assert.InDelta(t, 1.6, ds.HawkishTotal, 1e-12)
		assert.Equal(t, 0.0, ds.DovishTotal)
		assert.Equal(t, scale.Bound(), ds.Raw)
		assert.InDelta(t, 0.32, ds.Confidence, 1e-12)
		assert.Equal(t, map[string]int{"raise rates": 1, "sticky inflation": 1}, ds.HawkishMatches)
		assert.Nil(t, ds.DovishMatches)
	}
}

func TestScoreDimension_MixedDirections(t *testing.T) {
	text := "Officials may raise rates, or cut rates, or cut rates again."
	ds := ScoreDimension(Normalize(text), testDictionary(), DefaultScale)

	// h=1, d=2 -> 5 * (1-2)/3
	assert.InDelta(t, -5.0/3.0, ds.Raw, 1e-12)
	assert.InDelta(t, 3.0/5.0, ds.Confidence, 1e-12)
	assert.Equal(t, 2, ds.DovishMatches["cut rates"])
}

func TestScoreDimension_PhraseNotToken(t *testing.T) {
	dict := Dictionary{hawk("tighten", 0.8), hawk("tightening", 0.8)}

	ds := ScoreDimension(Normalize("further tightening is needed"), dict, DefaultScale)
	// "tightening" also contains "tighten"
	assert.InDelta(t, 1.6, ds.HawkishTotal, 1e-12)

	ds = ScoreDimension(Normalize("raise the rates"), testDictionary(), DefaultScale)
	assert.Equal(t, 0.0, ds.Confidence, "words must be contiguous")
}

func TestScoreDimension_ConfidenceMonotoneAndSaturates(t *testing.T) {
	dict := Dictionary{hawk("raise rates", 1.0)}

	prev := -1.0
	for n := 0; n <= 9; n++ {
		text := strings.Repeat("raise rates ", n)
		ds := ScoreDimension(Normalize(text), dict, DefaultScale)
		assert.GreaterOrEqual(t, ds.Confidence, prev, "n=%d", n)
		assert.LessOrEqual(t, ds.Confidence, 1.0)
		if n >= 5 {
			assert.Equal(t, 1.0, ds.Confidence, "n=%d", n)
		}
		prev = ds.Confidence
	}
}

func TestScoreDimension_StaysInBounds(t *testing.T) {
	texts := []string{
		"raise rates raise rates cut rates",
		"sticky inflation and labor market softening",
		"cut rates cut rates cut rates cut rates cut rates cut rates",
	}
	for _, text := range texts {
		for _, scale := range []Scale{DefaultScale, UnitScale} {
			ds := ScoreDimension(Normalize(text), testDictionary(), scale)
			assert.LessOrEqual(t, ds.Raw, scale.Bound())
			assert.GreaterOrEqual(t, ds.Raw, -scale.Bound())
			assert.GreaterOrEqual(t, ds.Confidence, 0.0)
			assert.LessOrEqual(t, ds.Confidence, 1.0)
		}
	}
}

func TestKeywordScorer_NormalizesInput(t *testing.T) {
	s := NewKeywordScorer(DefaultScale)

	ds, err := s.Score("  RAISE\n\nRATES now", testDictionary())
	require.NoError(t, err)
	assert.Equal(t, 5.0, ds.Raw)
	assert.InDelta(t, 0.2, ds.Confidence, 1e-12)
}

func TestDefaultDictionaries_Valid(t *testing.T) {
	dicts := DefaultDictionaries()
	require.NoError(t, dicts.Validate())
	assert.NotEmpty(t, dicts.Policy)
	assert.NotEmpty(t, dicts.BalanceSheet)

	for _, d := range []Dictionary{dicts.Policy, dicts.BalanceSheet} {
		for _, term := range d {
			assert.Equal(t, Normalize(term.Phrase), term.Phrase)
		}
	}
}
