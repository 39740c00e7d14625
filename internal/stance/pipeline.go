package stance

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Stance is the evaluated position of one participant.
type Stance struct {
	ParticipantID     string    `json:"participant_id"`
	Date              time.Time `json:"date"`
	Score             float64   `json:"score"`
	Label             Label     `json:"label"`
	PolicyScore       float64   `json:"policy_score"`
	PolicyLabel       Label     `json:"policy_label"`
	BalanceSheetScore float64   `json:"balance_sheet_score"`
	BalanceSheetLabel Label     `json:"balance_sheet_label"`
	Source            Source    `json:"source"`
	SnippetCount      int       `json:"snippet_count"`
	HawkishMatches    []string  `json:"hawkish_matches,omitempty"`
	DovishMatches     []string  `json:"dovish_matches,omitempty"`
	Aggregate         Aggregate `json:"aggregate"`
}

// Config holds the pipeline parameters.
type Config struct {
	Scale   Scale
	Weights Weights
	// MaxEvidence caps the number of evidence items returned per participant.
	MaxEvidence int
	// QuoteContextChars is the size of the window around a matched phrase.
	QuoteContextChars int
}

// DefaultConfig returns the +/-5 scale with default weights, 8 evidence items
// and 120 characters of quote context.
func DefaultConfig() Config {
	return Config{
		Scale:             DefaultScale,
		Weights:           DefaultWeights(),
		MaxEvidence:       8,
		QuoteContextChars: 120,
	}
}

// Pipeline wires a scorer and dictionaries into the full scoring flow.
type Pipeline struct {
	cfg     Config
	dicts   Dictionaries
	scorer  Scorer
	keyword *KeywordScorer
	log     zerolog.Logger
}

// NewPipeline validates its inputs and returns a pipeline. A nil scorer means
// keyword scoring.
func NewPipeline(cfg Config, dicts Dictionaries, scorer Scorer, log zerolog.Logger) (*Pipeline, error) {
	if _, err := ParseScale(cfg.Scale.Bound()); err != nil {
		return nil, err
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	if err := dicts.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxEvidence < 0 || cfg.QuoteContextChars < 0 {
		return nil, fmt.Errorf("evidence limits must not be negative")
	}

	dicts.Policy = dicts.Policy.normalized()
	dicts.BalanceSheet = dicts.BalanceSheet.normalized()

	p := &Pipeline{
		cfg:     cfg,
		dicts:   dicts,
		scorer:  scorer,
		keyword: NewKeywordScorer(cfg.Scale),
		log:     log.With().Str("component", "stance_pipeline").Logger(),
	}
	if p.scorer == nil {
		p.scorer = p.keyword
	}

	for _, dim := range []Dimension{DimensionPolicy, DimensionBalanceSheet} {
		if dups := dicts.For(dim).Duplicates(); len(dups) > 0 {
			p.log.Warn().
				Str("dimension", string(dim)).
				Strs("phrases", dups).
				Msg("Duplicate dictionary phrases, each occurrence is scored")
		}
	}
	return p, nil
}

// Config returns the pipeline parameters.
func (p *Pipeline) Config() Config { return p.cfg }

// Scale returns the configured scale.
func (p *Pipeline) Scale() Scale { return p.cfg.Scale }

// Dictionaries returns the loaded dictionaries.
func (p *Pipeline) Dictionaries() Dictionaries { return p.dicts }

func (p *Pipeline) score(text string, dim Dimension) DimensionScore {
	dict := p.dicts.For(dim)
	ds, err := ScoreOn(p.scorer, text, dim, dict)
	if err != nil {
		p.log.Warn().Err(err).Str("dimension", string(dim)).Msg("Scorer failed, using keyword scoring")
		ds, _ = p.keyword.Score(text, dict)
	}
	return ds
}

// ScoreSnippet scores one text on both dimensions and combines them.
func (p *Pipeline) ScoreSnippet(text string) SnippetScore {
	return Combine(
		p.score(text, DimensionPolicy),
		p.score(text, DimensionBalanceSheet),
		p.cfg.Weights,
	)
}

// Evaluate scores docs for a participant, blends the result with lean and
// returns the evidence of the matching documents. Each document is scored
// once; its evidence carries that same score. Blank documents are skipped.
// With no remaining document the stance is the lean itself, with source
// SourceHistoricalLean, and there is no evidence.
func (p *Pipeline) Evaluate(lean Lean, docs []Document) (Stance, []Evidence) {
	scale := p.cfg.Scale

	var scores []SnippetScore
	var evidence []Evidence
	hawkish := map[string]bool{}
	dovish := map[string]bool{}
	for _, d := range docs {
		text := d.Text()
		if text == "" {
			continue
		}
		s := p.ScoreSnippet(text)
		scores = append(scores, s)
		for _, ds := range []DimensionScore{s.Policy, s.BalanceSheet} {
			for phrase := range ds.HawkishMatches {
				hawkish[phrase] = true
			}
			for phrase := range ds.DovishMatches {
				dovish[phrase] = true
			}
		}
		if ev, ok := p.Evidence(d, s); ok {
			evidence = append(evidence, ev)
		}
	}

	if len(scores) == 0 {
		overall := lean.Overall(p.cfg.Weights, scale)
		return Stance{
			Score:             overall,
			Label:             scale.Label(overall),
			PolicyScore:       lean.Policy,
			PolicyLabel:       scale.Label(lean.Policy),
			BalanceSheetScore: lean.BalanceSheet,
			BalanceSheetLabel: scale.Label(lean.BalanceSheet),
			Source:            SourceHistoricalLean,
		}, nil
	}

	RankEvidence(evidence)
	if p.cfg.MaxEvidence > 0 && len(evidence) > p.cfg.MaxEvidence {
		evidence = evidence[:p.cfg.MaxEvidence]
	}

	agg := AggregateScores(scores)
	b := Blend(agg, lean, p.cfg.Weights, scale)
	return Stance{
		Score:             b.Overall,
		Label:             scale.Label(b.Overall),
		PolicyScore:       b.Policy,
		PolicyLabel:       scale.Label(b.Policy),
		BalanceSheetScore: b.BalanceSheet,
		BalanceSheetLabel: scale.Label(b.BalanceSheet),
		Source:            SourceLive,
		SnippetCount:      len(scores),
		HawkishMatches:    sortedKeys(hawkish),
		DovishMatches:     sortedKeys(dovish),
		Aggregate:         agg,
	}, evidence
}
