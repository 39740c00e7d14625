package stance

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, scorer Scorer) *Pipeline {
	t.Helper()
	p, err := NewPipeline(DefaultConfig(), DefaultDictionaries(), scorer, zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, err)
	return p
}

func bodies(texts ...string) []Document {
	docs := make([]Document, len(texts))
	for i, t := range texts {
		docs[i] = Document{Body: t}
	}
	return docs
}

func TestNewPipeline_RejectsInvalidInputs(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	cfg := DefaultConfig()
	cfg.Scale = 0
	_, err := NewPipeline(cfg, DefaultDictionaries(), nil, log)
	assert.ErrorIs(t, err, ErrInvalidScale)

	cfg = DefaultConfig()
	cfg.Weights.News = 2
	_, err = NewPipeline(cfg, DefaultDictionaries(), nil, log)
	assert.Error(t, err)

	dicts := DefaultDictionaries()
	dicts.BalanceSheet = append(dicts.BalanceSheet, TermEntry{Phrase: "x", Direction: "up", Weight: 0.5})
	_, err = NewPipeline(DefaultConfig(), dicts, nil, log)
	assert.ErrorIs(t, err, ErrInvalidTerm)
}

func TestPipeline_EvaluateWithoutSnippetsIsLean(t *testing.T) {
	p := newTestPipeline(t, nil)
	lean := Lean{Policy: 2.0, BalanceSheet: -1.0}

	for _, docs := range [][]Document{nil, {}, bodies("", "   \n")} {
		st, evidence := p.Evaluate(lean, docs)
		assert.Empty(t, evidence)
		assert.Equal(t, SourceHistoricalLean, st.Source)
		assert.Equal(t, lean.Policy, st.PolicyScore)
		assert.Equal(t, lean.BalanceSheet, st.BalanceSheetScore)
		assert.Equal(t, lean.Overall(DefaultWeights(), DefaultScale), st.Score)
		assert.Equal(t, 0, st.SnippetCount)
		assert.Equal(t, LabelHawkish, st.PolicyLabel)
	}
}

func TestPipeline_EvaluateLive(t *testing.T) {
	p := newTestPipeline(t, nil)

	st, evidence := p.Evaluate(Lean{}, bodies(
		"Governor says the committee must raise rates",
		"Nothing relevant here at all",
	))
	require.Len(t, evidence, 1)
	assert.Equal(t, []string{"raise rates"}, evidence[0].Keywords)

	assert.Equal(t, SourceLive, st.Source)
	assert.Equal(t, 2, st.SnippetCount)
	assert.Equal(t, []string{"raise rates"}, st.HawkishMatches)
	// Only the first snippet carries signal: policy 5.0 blended with lean 0.
	assert.InDelta(t, 3.5, st.PolicyScore, 1e-12)
	assert.Equal(t, LabelHawkish, st.Label)
	assert.False(t, st.Aggregate.BalanceSheet.Present())
	assert.Equal(t, 0.0, st.BalanceSheetScore)
}

func TestPipeline_EvaluateBothDimensions(t *testing.T) {
	p := newTestPipeline(t, nil)

	st, _ := p.Evaluate(Lean{Policy: -1, BalanceSheet: 1}, bodies(
		"Officials signalled they could cut rates and begin quantitative easing",
	))

	assert.True(t, st.Aggregate.BalanceSheet.Present())
	assert.Less(t, st.PolicyScore, 0.0)
	assert.Less(t, st.BalanceSheetScore, 0.0)
	assert.Equal(t, LabelDovish, st.Label)
	for _, v := range []float64{st.Score, st.PolicyScore, st.BalanceSheetScore} {
		assert.LessOrEqual(t, math.Abs(v), DefaultScale.Bound())
	}
}

func TestPipeline_EvaluateUnitScale(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scale = UnitScale
	p, err := NewPipeline(cfg, DefaultDictionaries(), nil, zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, err)

	st, _ := p.Evaluate(Lean{}, bodies("we must raise rates"))
	assert.InDelta(t, 0.7, st.PolicyScore, 1e-12)
	assert.Equal(t, LabelHawkish, st.Label)
}

type failingScorer struct{}

func (failingScorer) Score(string, Dictionary) (DimensionScore, error) {
	return DimensionScore{}, errors.New("backend down")
}

func TestPipeline_ScorerErrorFallsBackToKeyword(t *testing.T) {
	p := newTestPipeline(t, failingScorer{})

	s := p.ScoreSnippet("time to raise rates")
	assert.Equal(t, 5.0, s.Overall)
}

type countingScorer struct {
	KeywordScorer
	calls map[string]int
}

func (c *countingScorer) Score(text string, dict Dictionary) (DimensionScore, error) {
	c.calls[text]++
	return c.KeywordScorer.Score(text, dict)
}

func TestPipeline_EvaluateScoresEachDocumentOnce(t *testing.T) {
	scorer := &countingScorer{KeywordScorer: KeywordScorer{Scale: DefaultScale}, calls: map[string]int{}}
	p := newTestPipeline(t, scorer)

	docs := []Document{
		{Title: "Hawk", Body: "time to raise rates"},
		{Title: "Dove", Body: "we will cut rates and slow the pace of runoff"},
		{Title: "Noise", Body: "the weather was fine"},
	}
	st, evidence := p.Evaluate(Lean{}, docs)

	require.Len(t, scorer.calls, 3)
	for _, d := range docs {
		// One call per dimension.
		assert.Equal(t, 2, scorer.calls[d.Text()], d.Title)
	}
	assert.Equal(t, 3, st.SnippetCount)

	require.Len(t, evidence, 2)
	for _, ev := range evidence {
		for _, d := range docs {
			if d.Title == ev.Title {
				assert.Equal(t, p.ScoreSnippet(d.Text()).Overall, ev.Score)
			}
		}
	}
}
