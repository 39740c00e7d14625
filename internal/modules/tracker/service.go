// Package tracker scores every committee participant from stored snippets
// and records the resulting stances.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/neoyipeng2018/central-bank-tracker/internal/metrics"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/history"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/signal"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/snippets"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrRunInProgress is returned when a full run is requested while one is
// already going.
var ErrRunInProgress = errors.New("a tracker run is already in progress")

// ErrEmptyText is returned by Classify for blank input.
var ErrEmptyText = errors.New("text is empty")

// SnippetSource provides the stored text for a participant.
type SnippetSource interface {
	ListForParticipant(ctx context.Context, participantID string, since time.Time) ([]snippets.Snippet, error)
}

// HistoryStore persists stances and run summaries.
type HistoryStore interface {
	Upsert(ctx context.Context, e history.Entry) error
	SaveRun(ctx context.Context, run history.Run) error
}

// SignalSource computes the committee signal after a run.
type SignalSource interface {
	Compute(ctx context.Context, kind signal.ScoreKind) (signal.Signal, error)
}

// Publisher receives tracker events as they happen.
type Publisher interface {
	Publish(eventType string, data interface{})
}

// Event types handed to the Publisher.
const (
	EventRunComplete = "run_complete"
	EventSignal      = "signal"
	EventStance      = "stance"
)

// Config holds the tracker run settings.
type Config struct {
	// LookbackDays limits scoring to snippets fetched in this window.
	LookbackDays int
	// Workers bounds how many participants are scored at once.
	Workers int
	// RunTimeout bounds a full committee run.
	RunTimeout time.Duration
}

// Result is one participant's stance with its supporting evidence.
type Result struct {
	Stance   stance.Stance     `json:"stance"`
	Evidence []stance.Evidence `json:"evidence"`
	RunID    string            `json:"run_id"`
}

// Service runs the stance pipeline over the committee.
type Service struct {
	pipeline  *stance.Pipeline
	roster    *participants.Roster
	snippets  SnippetSource
	history   HistoryStore
	signals   SignalSource
	publisher Publisher
	metrics   *metrics.Metrics
	clock     clockwork.Clock
	cfg       Config
	log       zerolog.Logger

	runMu sync.Mutex
}

// NewService creates a new tracker service. signals and m may be nil.
func NewService(
	pipeline *stance.Pipeline,
	roster *participants.Roster,
	snippetSource SnippetSource,
	historyStore HistoryStore,
	signals SignalSource,
	m *metrics.Metrics,
	clock clockwork.Clock,
	cfg Config,
	log zerolog.Logger,
) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Service{
		pipeline: pipeline,
		roster:   roster,
		snippets: snippetSource,
		history:  historyStore,
		signals:  signals,
		metrics:  m,
		clock:    clock,
		cfg:      cfg,
		log:      log.With().Str("service", "tracker").Logger(),
	}
}

// SetPublisher routes run, stance and signal events to p.
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

func (s *Service) publish(eventType string, data interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(eventType, data)
	}
}

func (s *Service) since() time.Time {
	if s.cfg.LookbackDays <= 0 {
		return time.Time{}
	}
	return s.clock.Now().AddDate(0, 0, -s.cfg.LookbackDays)
}

// ProcessParticipant scores p from its recent snippets, blends with its lean
// and records the stance under runID. Without snippets the stance is the
// lean itself.
func (s *Service) ProcessParticipant(ctx context.Context, p participants.Participant, runID string) (Result, error) {
	items, err := s.snippets.ListForParticipant(ctx, p.ID, s.since())
	if err != nil {
		return Result{}, fmt.Errorf("failed to load snippets for %s: %w", p.ID, err)
	}

	st, evidence := s.pipeline.Evaluate(p.Lean(s.pipeline.Scale()), snippets.Documents(items))
	st.ParticipantID = p.ID
	st.Date = s.clock.Now().UTC()

	if evidence == nil {
		evidence = []stance.Evidence{}
	}

	if err := s.history.Upsert(ctx, history.FromStance(st, evidence, runID)); err != nil {
		return Result{}, err
	}

	s.metrics.ObserveStance(p.ID, string(st.Label), string(st.Source), st.Score, st.PolicyScore, st.BalanceSheetScore)
	s.log.Debug().
		Str("participant", p.ID).
		Float64("score", st.Score).
		Str("label", string(st.Label)).
		Str("source", string(st.Source)).
		Int("snippets", st.SnippetCount).
		Msg("Scored participant")

	return Result{Stance: st, Evidence: evidence, RunID: runID}, nil
}

// Process scores the participant named by id or partial name.
func (s *Service) Process(ctx context.Context, idOrName string) (Result, error) {
	p, err := s.roster.Resolve(idOrName)
	if err != nil {
		return Result{}, err
	}
	res, err := s.ProcessParticipant(ctx, p, uuid.New().String())
	if err != nil {
		return Result{}, err
	}
	s.publish(EventStance, res)
	return res, nil
}

// RunAll scores every participant concurrently and records a run summary.
// A participant that fails is counted and logged; the rest still complete.
func (s *Service) RunAll(ctx context.Context) (history.Run, error) {
	if !s.runMu.TryLock() {
		return history.Run{}, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	run := history.Run{ID: uuid.New().String(), StartedAt: s.clock.Now().UTC()}
	members := s.roster.All()
	s.log.Info().Str("run_id", run.ID).Int("participants", len(members)).Msg("Starting tracker run")

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.cfg.Workers)

	for _, p := range members {
		p := p
		g.Go(func() error {
			if ctx.Err() != nil {
				mu.Lock()
				run.Failed++
				mu.Unlock()
				return nil
			}
			res, err := s.ProcessParticipant(ctx, p, run.ID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				run.Failed++
				s.metrics.ObserveParticipantError(p.ID)
				s.log.Error().Err(err).Str("participant", p.ID).Msg("Failed to score participant")
				return nil
			}
			run.Count(res.Stance.Label, res.Stance.Source)
			return nil
		})
	}
	_ = g.Wait()

	run.FinishedAt = s.clock.Now().UTC()
	s.metrics.ObserveRun(run.FinishedAt.Sub(run.StartedAt), run.Failed)

	// The summary is saved even when the run context expired.
	if err := s.history.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		return run, err
	}

	s.publish(EventRunComplete, run)
	s.observeSignal(ctx)

	s.log.Info().
		Str("run_id", run.ID).
		Int("hawkish", run.Hawkish).
		Int("neutral", run.Neutral).
		Int("dovish", run.Dovish).
		Int("lean_fallbacks", run.LeanFallbacks).
		Int("failed", run.Failed).
		Msg("Tracker run complete")

	if run.Failed == len(members) && len(members) > 0 {
		return run, fmt.Errorf("every participant failed to score")
	}
	return run, nil
}

// observeSignal records the committee signal after a run and publishes
// the overall one.
func (s *Service) observeSignal(ctx context.Context) {
	if s.signals == nil || (s.metrics == nil && s.publisher == nil) {
		return
	}
	for _, kind := range []signal.ScoreKind{signal.KindOverall, signal.KindPolicy, signal.KindBalanceSheet} {
		sig, err := s.signals.Compute(context.WithoutCancel(ctx), kind)
		if err != nil {
			s.log.Warn().Err(err).Str("kind", string(kind)).Msg("Failed to compute committee signal")
			return
		}
		s.metrics.ObserveSignal(string(kind), sig.WeightedScore)
		if kind == signal.KindOverall {
			s.publish(EventSignal, sig)
		}
	}
}

// Classification is the one-off score of a free text.
type Classification struct {
	Score             float64          `json:"score"`
	Label             stance.Label     `json:"label"`
	PolicyScore       float64          `json:"policy_score"`
	PolicyLabel       stance.Label     `json:"policy_label"`
	BalanceSheetScore *float64         `json:"balance_sheet_score"`
	Confidence        float64          `json:"confidence"`
	Evidence          *stance.Evidence `json:"evidence,omitempty"`
}

// Classify scores text on its own, without any lean, and returns the
// matched evidence.
func (s *Service) Classify(text string) (Classification, error) {
	if strings.TrimSpace(text) == "" {
		return Classification{}, ErrEmptyText
	}
	scale := s.pipeline.Scale()
	score := s.pipeline.ScoreSnippet(text)

	out := Classification{
		Score:       score.Overall,
		Label:       scale.Label(score.Overall),
		PolicyScore: score.Policy.Raw,
		PolicyLabel: scale.Label(score.Policy.Raw),
		Confidence:  score.Confidence,
	}
	if score.HasBalanceSheet() {
		bs := score.BalanceSheet.Raw
		out.BalanceSheetScore = &bs
	}
	if ev, ok := s.pipeline.Evidence(stance.Document{Body: text, Source: "classify"}, score); ok {
		out.Evidence = &ev
	}
	return out, nil
}
