package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	content string
	err     error
}

type fakeGenerator struct {
	mu       sync.Mutex
	replies  []reply
	calls    int
	messages [][]*schema.Message
}

func (f *fakeGenerator) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = append(f.messages, input)
	if len(f.replies) == 0 {
		return nil, errors.New("no reply queued")
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return &schema.Message{Role: schema.Assistant, Content: r.content}, nil
}

const hawkishReply = `{"policy_score": 3.5, "balance_sheet_score": 2, "confidence": 0.8,
 "key_phrases": [
  {"phrase": "Raise Rates", "direction": "hawkish", "dimension": "policy"},
  {"phrase": "quantitative tightening", "direction": "hawkish", "dimension": "balance_sheet"}]}`

func newTestScorer(gen Generator) *Scorer {
	return NewScorer(gen, ScorerConfig{
		Scale:      stance.DefaultScale,
		Timeout:    5 * time.Second,
		RetryDelay: time.Millisecond,
	}, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestScorer_OneRequestForBothDimensions(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{content: hawkishReply}}}
	s := newTestScorer(gen)

	policy, err := s.ScoreOn("We may raise rates and keep QT going", stance.DimensionPolicy, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.5, policy.Raw)
	assert.Equal(t, 0.8, policy.Confidence)
	assert.Equal(t, map[string]int{"raise rates": 1}, policy.HawkishMatches)

	bs, err := s.ScoreOn("We may raise rates and keep QT going", stance.DimensionBalanceSheet, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, bs.Raw)
	assert.Equal(t, 0.8, bs.Confidence)
	assert.Equal(t, map[string]int{"quantitative tightening": 1}, bs.HawkishMatches)

	assert.Equal(t, 1, gen.calls)
	require.Len(t, gen.messages[0], 2)
	assert.Equal(t, schema.System, gen.messages[0][0].Role)
	assert.Contains(t, gen.messages[0][1].Content, "-5 (very dovish) to +5 (very hawkish)")
	assert.Contains(t, gen.messages[0][1].Content, "keep QT going")
}

func TestScorer_NoBalanceSheetPhrasesMeansNoSignal(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{content: "```json\n" +
		`{"policy_score": -2, "balance_sheet_score": -1.5, "confidence": 0.6, "key_phrases": [{"phrase": "cut rates", "direction": "dovish", "dimension": "policy"}]}` +
		"\n```"}}}
	s := newTestScorer(gen)

	bs, err := s.ScoreOn("time to cut rates", stance.DimensionBalanceSheet, nil)
	require.NoError(t, err)
	assert.Zero(t, bs.Raw)
	assert.Zero(t, bs.Confidence)

	policy, err := s.ScoreOn("time to cut rates", stance.DimensionPolicy, nil)
	require.NoError(t, err)
	assert.Equal(t, -2.0, policy.Raw)
	assert.Equal(t, 1.0, policy.DovishTotal)
}

func TestScorer_RetriesTransientErrors(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{
		{err: errors.New("status code: 429, too many requests")},
		{content: "not json"},
		{content: hawkishReply},
	}}
	s := newTestScorer(gen)

	c, err := s.Classify(context.Background(), "raise rates")
	require.NoError(t, err)
	assert.Equal(t, 3.5, c.PolicyScore)
	assert.Equal(t, 3, gen.calls)
}

func TestScorer_Errors(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{err: errors.New("invalid api key")}}}
	s := newTestScorer(gen)

	_, err := s.ScoreOn("raise rates", stance.DimensionPolicy, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, gen.calls)

	_, err = s.Score("raise rates", nil)
	assert.ErrorIs(t, err, ErrDimensionRequired)
	_, err = s.ScoreOn("raise rates", "", nil)
	assert.ErrorIs(t, err, ErrDimensionRequired)

	gen = &fakeGenerator{replies: []reply{{err: errors.New("503 service unavailable")}}}
	_, err = newTestScorer(gen).Classify(context.Background(), "raise rates")
	assert.Error(t, err)
	assert.Equal(t, maxRetries, gen.calls)
}

func TestScorer_CacheEvictsOldest(t *testing.T) {
	gen := &fakeGenerator{replies: []reply{{content: hawkishReply}}}
	s := newTestScorer(gen)

	for i := 0; i <= cacheSize; i++ {
		_, err := s.Classify(context.Background(), strings.Repeat("x", i+1))
		require.NoError(t, err)
	}
	assert.Equal(t, cacheSize+1, gen.calls)

	_, err := s.Classify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, cacheSize+2, gen.calls)

	_, err = s.Classify(context.Background(), strings.Repeat("x", cacheSize+1))
	require.NoError(t, err)
	assert.Equal(t, cacheSize+2, gen.calls)
}

func TestScorer_InChainFallsBackToKeyword(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	chain := stance.NewChainScorer(stance.DefaultScale, log)
	chain.Register("openai", newTestScorer(&fakeGenerator{replies: []reply{{err: errors.New("connection refused")}}}))

	p, err := stance.NewPipeline(stance.DefaultConfig(), stance.DefaultDictionaries(), chain, log)
	require.NoError(t, err)

	s := p.ScoreSnippet("time to raise rates")
	assert.Equal(t, 5.0, s.Overall)
	assert.Equal(t, map[string]int{"raise rates": 1}, s.Policy.HawkishMatches)
}

func TestScorer_InChainScoresBothDimensions(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	chain := stance.NewChainScorer(stance.DefaultScale, log)
	gen := &fakeGenerator{replies: []reply{{content: hawkishReply}}}
	chain.Register("openai", newTestScorer(gen))

	p, err := stance.NewPipeline(stance.DefaultConfig(), stance.DefaultDictionaries(), chain, log)
	require.NoError(t, err)

	s := p.ScoreSnippet("We may raise rates and keep QT going")
	assert.Equal(t, 1, gen.calls)
	assert.True(t, s.HasBalanceSheet())
	assert.InDelta(t, 0.7*3.5+0.3*2, s.Overall, 1e-12)
}
