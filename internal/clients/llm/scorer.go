package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	maxTextChars = 8000
	cacheSize    = 256
	maxRetries   = 3
	temperature  = 0.1
)

// ErrDimensionRequired is returned by Score, which has no dimension to
// report on. The pipeline always calls ScoreOn.
var ErrDimensionRequired = errors.New("llm scorer needs the scored dimension")

const systemPrompt = "You are a central bank monetary policy analyst. Reply with a single JSON object and nothing else."

const userPrompt = `Classify the stance of the following text about a monetary policy committee member on TWO dimensions:

1. policy: does the speaker favor raising, holding or cutting interest rates?
2. balance_sheet: does the speaker favor shrinking the balance sheet (quantitative tightening) or expanding it (quantitative easing, slower runoff)?

Score each dimension from -%[1]g (very dovish) to +%[1]g (very hawkish); 0 is neutral.
If the text says nothing about the balance sheet, set balance_sheet_score to 0 and list no balance_sheet phrases.
Set confidence from 0 (no policy signal) to 1 (very clear stance).
List the exact phrases from the text that signal the stance.

Reply as:
{"policy_score": 0.0, "balance_sheet_score": 0.0, "confidence": 0.0, "key_phrases": [{"phrase": "...", "direction": "hawkish|dovish", "dimension": "policy|balance_sheet"}]}

TEXT:
%[2]s`

// KeyPhrase is one stance-bearing phrase the model found.
type KeyPhrase struct {
	Phrase    string           `json:"phrase"`
	Direction stance.Direction `json:"direction"`
	Dimension stance.Dimension `json:"dimension"`
}

// Classification is the model's reading of one text.
type Classification struct {
	PolicyScore       float64     `json:"policy_score"`
	BalanceSheetScore float64     `json:"balance_sheet_score"`
	Confidence        float64     `json:"confidence"`
	KeyPhrases        []KeyPhrase `json:"key_phrases"`
}

// ScorerConfig holds the scorer parameters.
type ScorerConfig struct {
	Scale             stance.Scale
	Timeout           time.Duration // Per request, including retries
	RequestsPerMinute float64       // 0 disables rate limiting
	RetryDelay        time.Duration // Base backoff, doubled per attempt
}

// Scorer implements stance.DimensionScorer with a chat model. One model call
// rates both dimensions; the result is cached so the second dimension of the
// same text costs nothing.
type Scorer struct {
	gen     Generator
	cfg     ScorerConfig
	limiter *rate.Limiter
	group   singleflight.Group
	log     zerolog.Logger

	mu    sync.Mutex
	cache map[string]Classification
	order []string
}

// NewScorer creates a scorer on gen.
func NewScorer(gen Generator, cfg ScorerConfig, log zerolog.Logger) *Scorer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	s := &Scorer{
		gen:   gen,
		cfg:   cfg,
		cache: make(map[string]Classification),
		log:   log.With().Str("component", "llm_scorer").Logger(),
	}
	if cfg.RequestsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60.0), 1)
	}
	return s
}

// Score implements stance.Scorer. It always fails; see ScoreOn.
func (s *Scorer) Score(string, stance.Dictionary) (stance.DimensionScore, error) {
	return stance.DimensionScore{}, ErrDimensionRequired
}

// ScoreOn implements stance.DimensionScorer. The dictionary is not used; the
// matches are the phrases the model reported for dim.
func (s *Scorer) ScoreOn(text string, dim stance.Dimension, _ stance.Dictionary) (stance.DimensionScore, error) {
	if dim == "" {
		return stance.DimensionScore{}, ErrDimensionRequired
	}
	c, err := s.Classify(context.Background(), text)
	if err != nil {
		return stance.DimensionScore{}, err
	}
	return c.Dimension(dim), nil
}

// Dimension converts the classification into the score of one dimension.
// The balance-sheet dimension only carries confidence when the model
// reported a balance-sheet phrase, so that silent texts score on policy
// alone.
func (c Classification) Dimension(dim stance.Dimension) stance.DimensionScore {
	out := stance.DimensionScore{Raw: c.PolicyScore, Confidence: c.Confidence}
	if dim == stance.DimensionBalanceSheet {
		out.Raw = c.BalanceSheetScore
		out.Confidence = 0
	}

	for _, kp := range c.KeyPhrases {
		if kp.Dimension != dim {
			continue
		}
		phrase := stance.Normalize(kp.Phrase)
		if phrase == "" {
			continue
		}
		switch kp.Direction {
		case stance.DirectionHawkish:
			if out.HawkishMatches == nil {
				out.HawkishMatches = make(map[string]int)
			}
			out.HawkishMatches[phrase]++
			out.HawkishTotal++
		case stance.DirectionDovish:
			if out.DovishMatches == nil {
				out.DovishMatches = make(map[string]int)
			}
			out.DovishMatches[phrase]++
			out.DovishTotal++
		default:
			continue
		}
		if dim == stance.DimensionBalanceSheet {
			out.Confidence = c.Confidence
		}
	}
	if out.Confidence == 0 && dim == stance.DimensionBalanceSheet {
		out.Raw = 0
	}
	return out
}

// Classify returns the model's classification of text, from cache when the
// same text was classified recently. Concurrent calls for one text share a
// single request.
func (s *Scorer) Classify(ctx context.Context, text string) (Classification, error) {
	text = truncate(strings.TrimSpace(text), maxTextChars)
	if c, ok := s.cached(text); ok {
		return c, nil
	}

	v, err, _ := s.group.Do(text, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
		c, err := s.request(ctx, text)
		if err != nil {
			return nil, err
		}
		s.store(text, c)
		return c, nil
	})
	if err != nil {
		return Classification{}, err
	}
	return v.(Classification), nil
}

func (s *Scorer) request(ctx context.Context, text string) (Classification, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: fmt.Sprintf(userPrompt, s.cfg.Scale.Bound(), text)},
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Classification{}, ctx.Err()
			case <-time.After(s.cfg.RetryDelay * time.Duration(1<<(attempt-1))):
			}
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return Classification{}, err
			}
		}

		resp, err := s.gen.Generate(ctx, messages, model.WithTemperature(temperature))
		if err != nil {
			if !retryable(err) {
				return Classification{}, fmt.Errorf("llm request failed: %w", err)
			}
			s.log.Warn().Err(err).Int("attempt", attempt+1).Msg("LLM request failed, retrying")
			lastErr = err
			continue
		}

		c, err := parse(resp.Content)
		if err != nil {
			s.log.Warn().Err(err).Int("attempt", attempt+1).Msg("Unparseable LLM reply, retrying")
			lastErr = err
			continue
		}
		return c, nil
	}
	return Classification{}, fmt.Errorf("llm request failed after %d attempts: %w", maxRetries, lastErr)
}

func (s *Scorer) cached(text string) (Classification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cache[text]
	return c, ok
}

func (s *Scorer) store(text string, c Classification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[text]; ok {
		return
	}
	if len(s.order) >= cacheSize {
		delete(s.cache, s.order[0])
		s.order = s.order[1:]
	}
	s.cache[text] = c
	s.order = append(s.order, text)
}

// parse reads a classification, tolerating a markdown code fence around it.
func parse(content string) (Classification, error) {
	clean := strings.TrimSpace(content)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")

	var c Classification
	if err := json.Unmarshal([]byte(strings.TrimSpace(clean)), &c); err != nil {
		return Classification{}, fmt.Errorf("failed to decode classification: %w", err)
	}
	return c, nil
}

func retryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "500", "503", "too many requests"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
