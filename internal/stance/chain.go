package stance

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"
)

// ErrUnknownBackend is returned by SetEnabled for a name that was never
// registered.
var ErrUnknownBackend = errors.New("scorer backend not registered")

type backend struct {
	name    string
	scorer  Scorer
	enabled bool
}

// ChainScorer tries registered backends in order and falls back to keyword
// scoring when every enabled backend fails. A backend result outside the
// scale bounds or with a NaN field counts as a failure.
//
// Registration and toggling are safe to call while scoring is in progress.
type ChainScorer struct {
	mu       sync.RWMutex
	backends []*backend
	fallback *KeywordScorer
	log      zerolog.Logger
}

// NewChainScorer creates a chain whose fallback is a keyword scorer on scale.
func NewChainScorer(scale Scale, log zerolog.Logger) *ChainScorer {
	return &ChainScorer{
		fallback: NewKeywordScorer(scale),
		log:      log.With().Str("component", "scorer_chain").Logger(),
	}
}

// Register appends an enabled backend. Registering an existing name replaces it
// in place.
func (c *ChainScorer) Register(name string, s Scorer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.backends {
		if b.name == name {
			b.scorer = s
			b.enabled = true
			return
		}
	}
	c.backends = append(c.backends, &backend{name: name, scorer: s, enabled: true})
}

// SetEnabled toggles a registered backend.
func (c *ChainScorer) SetEnabled(name string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.backends {
		if b.name == name {
			b.enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

// Backends returns the registered backend names with their enabled flag.
func (c *ChainScorer) Backends() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]bool, len(c.backends))
	for _, b := range c.backends {
		out[b.name] = b.enabled
	}
	return out
}

// Score implements Scorer. Backends that need the dimension are skipped.
// It never returns an error.
func (c *ChainScorer) Score(text string, dict Dictionary) (DimensionScore, error) {
	return c.ScoreOn(text, "", dict)
}

// ScoreOn implements DimensionScorer. It never returns an error.
func (c *ChainScorer) ScoreOn(text string, dim Dimension, dict Dictionary) (DimensionScore, error) {
	c.mu.RLock()
	backends := make([]backend, 0, len(c.backends))
	for _, b := range c.backends {
		if b.enabled {
			backends = append(backends, *b)
		}
	}
	c.mu.RUnlock()

	for _, b := range backends {
		if _, ok := b.scorer.(DimensionScorer); ok && dim == "" {
			continue
		}
		ds, err := ScoreOn(b.scorer, text, dim, dict)
		if err == nil {
			err = c.check(ds)
		}
		if err != nil {
			c.log.Warn().Err(err).Str("backend", b.name).Msg("Scorer backend failed, trying next")
			continue
		}
		return ds, nil
	}
	return c.fallback.Score(text, dict)
}

func (c *ChainScorer) check(ds DimensionScore) error {
	bound := c.fallback.Scale.Bound()
	if math.IsNaN(ds.Raw) || math.Abs(ds.Raw) > bound {
		return fmt.Errorf("raw score %v outside [-%v,%v]", ds.Raw, bound, bound)
	}
	if math.IsNaN(ds.Confidence) || ds.Confidence < 0 || ds.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", ds.Confidence)
	}
	return nil
}
