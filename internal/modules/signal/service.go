package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/calendar"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/history"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/rs/zerolog"
)

// HistoryReader is the part of the history repository the signal needs.
type HistoryReader interface {
	LatestAll(ctx context.Context) (map[string]history.Entry, error)
	AsOfAll(ctx context.Context, date string) (map[string]history.Entry, error)
}

// MeetingCalendar is the part of the meeting calendar the signal needs.
type MeetingCalendar interface {
	Previous(ref time.Time) (calendar.Meeting, bool)
	Past(ref time.Time, n int) []calendar.Meeting
	CurrentRate(ref time.Time) (calendar.RateRange, bool)
}

// DefaultDriftWindow is how far back Drift looks when no date is given and
// no previous meeting is known.
const DefaultDriftWindow = 30 * 24 * time.Hour

// DefaultDecisionCount is how many past meetings Decisions compares.
const DefaultDecisionCount = 6

// Service computes committee signals from stored history.
type Service struct {
	roster   *participants.Roster
	history  HistoryReader
	weights  stance.Weights
	scale    stance.Scale
	meetings MeetingCalendar
	clock    clockwork.Clock
	log      zerolog.Logger
}

// NewService creates a new signal service. cal may be nil, in which case
// actions carry no projected rate and Decisions is empty.
func NewService(roster *participants.Roster, hist HistoryReader, w stance.Weights, scale stance.Scale, cal MeetingCalendar, clock clockwork.Clock, log zerolog.Logger) *Service {
	return &Service{
		roster:   roster,
		history:  hist,
		weights:  w,
		scale:    scale,
		meetings: cal,
		clock:    clock,
		log:      log.With().Str("service", "signal").Logger(),
	}
}

// Scale returns the score scale signals are reported on.
func (s *Service) Scale() stance.Scale {
	return s.scale
}

// Compute returns the current committee signal for kind, using each
// participant's latest stance.
func (s *Service) Compute(ctx context.Context, kind ScoreKind) (Signal, error) {
	entries, err := s.history.LatestAll(ctx)
	if err != nil {
		return Signal{}, fmt.Errorf("failed to load latest stances: %w", err)
	}
	sig := Weigh(s.roster.All(), entries, kind, s.weights, s.scale)
	sig.Action = s.actionAt(sig.WeightedScore, s.clock.Now())
	return sig, nil
}

// ComputeAsOf returns the committee signal using, per participant, the
// stance closest to but not after date. The projected rate is taken from
// the rate in force on date.
func (s *Service) ComputeAsOf(ctx context.Context, kind ScoreKind, date string) (Signal, error) {
	ref, err := time.Parse(history.DateLayout, date)
	if err != nil {
		return Signal{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	entries, err := s.history.AsOfAll(ctx, date)
	if err != nil {
		return Signal{}, fmt.Errorf("failed to load stances as of %s: %w", date, err)
	}
	sig := Weigh(s.roster.All(), entries, kind, s.weights, s.scale)
	// The rate set on date itself is in force by the end of it.
	sig.Action = s.actionAt(sig.WeightedScore, ref.AddDate(0, 0, 1))
	return sig, nil
}

// Action maps score to the implied action, projected from today's rate.
func (s *Service) Action(score float64) Action {
	return s.actionAt(score, s.clock.Now())
}

func (s *Service) actionAt(score float64, ref time.Time) Action {
	a := ImpliedAction(score, s.scale)
	if s.meetings == nil {
		return a
	}
	if current, ok := s.meetings.CurrentRate(ref); ok {
		a = a.Project(current)
	}
	return a
}

// Drift compares the signal as of since with the current signal. An empty
// since means the previous meeting's decision day, or DefaultDriftWindow
// ago when no meeting precedes today.
func (s *Service) Drift(ctx context.Context, kind ScoreKind, since string) (Drift, error) {
	var prev *calendar.Meeting
	if since == "" {
		if s.meetings != nil {
			if m, ok := s.meetings.Previous(s.clock.Now()); ok {
				prev = &m
				since = m.EndDate
			}
		}
		if since == "" {
			since = s.clock.Now().Add(-DefaultDriftWindow).Format(history.DateLayout)
		}
	}

	previous, err := s.ComputeAsOf(ctx, kind, since)
	if err != nil {
		return Drift{}, err
	}
	current, err := s.Compute(ctx, kind)
	if err != nil {
		return Drift{}, err
	}

	d := NewDrift(kind, since, previous.WeightedScore, current.WeightedScore, s.scale)
	if prev != nil {
		d.PreviousMeetingDate = prev.EndDate
		d.PreviousDecision = prev.Decision
	}
	s.log.Debug().
		Str("kind", string(kind)).
		Str("since", since).
		Float64("drift", d.Drift).
		Str("direction", d.Direction).
		Msg("Computed signal drift")
	return d, nil
}

// Decisions reconstructs the signal as of each of the last n decided
// meetings and compares its implied direction with the decision taken.
// n <= 0 means DefaultDecisionCount.
func (s *Service) Decisions(ctx context.Context, kind ScoreKind, n int) ([]Decision, error) {
	if n <= 0 {
		n = DefaultDecisionCount
	}
	out := []Decision{}
	if s.meetings == nil {
		return out, nil
	}

	for _, m := range s.meetings.Past(s.clock.Now(), n) {
		entries, err := s.history.AsOfAll(ctx, m.EndDate)
		if err != nil {
			return nil, fmt.Errorf("failed to load stances as of %s: %w", m.EndDate, err)
		}
		sig := Weigh(s.roster.All(), entries, kind, s.weights, s.scale)
		out = append(out, NewDecision(m, sig.WeightedScore, sig.Action))
	}

	matched := 0
	for _, d := range out {
		if d.Match {
			matched++
		}
	}
	s.log.Debug().
		Str("kind", string(kind)).
		Int("meetings", len(out)).
		Int("matched", matched).
		Msg("Compared signal with decisions")
	return out, nil
}
