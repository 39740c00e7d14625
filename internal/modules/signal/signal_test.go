package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/calendar"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/history"
	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants"
	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func members() []participants.Participant {
	return []participants.Participant{
		{ID: "chair", Committee: participants.CommitteeFOMC, Role: participants.RoleChair, Voter: true},
		{ID: "gov", Committee: participants.CommitteeFOMC, Role: participants.RoleGovernor, Voter: true},
		{ID: "alt", Committee: participants.CommitteeFOMC, Role: participants.RolePresident, Voter: false, LeanPolicy: 0.4},
	}
}

func TestWeigh(t *testing.T) {
	entries := map[string]history.Entry{
		"chair": {ParticipantID: "chair", Score: 2, PolicyScore: 3, Source: stance.SourceLive},
		"gov":   {ParticipantID: "gov", Score: -1, PolicyScore: -2, Source: stance.SourceLive},
	}

	sig := Weigh(members(), entries, KindOverall, stance.DefaultWeights(), stance.DefaultScale)

	// alt falls back to its lean: 0.7 * 2.0 + 0.3 * 0.
	assert.InDelta(t, 4.25, sig.TotalWeight, 1e-12)
	assert.InDelta(t, (6-1+0.35)/4.25, sig.WeightedScore, 1e-9)
	assert.InDelta(t, 0.8, sig.SimpleAverage, 1e-9)
	assert.InDelta(t, 0.5, sig.VoterAverage, 1e-9)
	assert.Equal(t, stance.LabelNeutral, sig.Label)
	assert.Equal(t, "Lean Hike", sig.Action.Action)

	require.Len(t, sig.Contributions, 3)
	assert.Equal(t, "chair", sig.Contributions[0].ParticipantID)
	assert.Equal(t, "alt", sig.Contributions[1].ParticipantID)
	assert.Equal(t, stance.SourceHistoricalLean, sig.Contributions[1].Source)
	assert.Equal(t, "gov", sig.Contributions[2].ParticipantID)
	assert.InDelta(t, 0.35, sig.Contributions[1].WeightedContribution, 1e-12)
}

func TestWeigh_ScoreKinds(t *testing.T) {
	entries := map[string]history.Entry{
		"chair": {Score: 2, PolicyScore: 3, BalanceSheetScore: -4},
	}
	ms := members()[:1]

	assert.InDelta(t, 2.0, Weigh(ms, entries, KindOverall, stance.DefaultWeights(), stance.DefaultScale).WeightedScore, 1e-12)
	assert.InDelta(t, 3.0, Weigh(ms, entries, KindPolicy, stance.DefaultWeights(), stance.DefaultScale).WeightedScore, 1e-12)
	assert.InDelta(t, -4.0, Weigh(ms, entries, KindBalanceSheet, stance.DefaultWeights(), stance.DefaultScale).WeightedScore, 1e-12)

	alt := members()[2:]
	assert.InDelta(t, 2.0, Weigh(alt, nil, KindPolicy, stance.DefaultWeights(), stance.DefaultScale).WeightedScore, 1e-12)
	assert.InDelta(t, 0.0, Weigh(alt, nil, KindBalanceSheet, stance.DefaultWeights(), stance.DefaultScale).WeightedScore, 1e-12)
}

func TestWeigh_Empty(t *testing.T) {
	sig := Weigh(nil, nil, KindOverall, stance.DefaultWeights(), stance.DefaultScale)
	assert.Equal(t, 0.0, sig.WeightedScore)
	assert.Equal(t, "Hold", sig.Action.Action)
	assert.NotNil(t, sig.Contributions)
}

func TestParseScoreKind(t *testing.T) {
	k, err := ParseScoreKind("")
	require.NoError(t, err)
	assert.Equal(t, KindOverall, k)

	k, err = ParseScoreKind("balance_sheet_score")
	require.NoError(t, err)
	assert.Equal(t, KindBalanceSheet, k)

	_, err = ParseScoreKind("vibes")
	assert.Error(t, err)
}

type fakeHistory struct {
	latest map[string]history.Entry
	asOf   map[string]map[string]history.Entry
	err    error
	dates  []string
}

func (f *fakeHistory) LatestAll(context.Context) (map[string]history.Entry, error) {
	return f.latest, f.err
}

func (f *fakeHistory) AsOfAll(_ context.Context, date string) (map[string]history.Entry, error) {
	f.dates = append(f.dates, date)
	return f.asOf[date], f.err
}

func newService(t *testing.T, h HistoryReader, cal MeetingCalendar) *Service {
	t.Helper()
	roster, err := participants.NewRoster(participants.CommitteeBoE)
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC))
	return NewService(roster, h, stance.DefaultWeights(), stance.DefaultScale, cal, clock, zerolog.New(nil).Level(zerolog.Disabled))
}

func boeCalendar(t *testing.T) *calendar.Calendar {
	t.Helper()
	cal, err := calendar.New(participants.CommitteeBoE, "")
	require.NoError(t, err)
	return cal
}

func allAt(score float64) map[string]history.Entry {
	roster, _ := participants.NewRoster(participants.CommitteeBoE)
	out := map[string]history.Entry{}
	for _, p := range roster.All() {
		out[p.ID] = history.Entry{ParticipantID: p.ID, Score: score, Source: stance.SourceLive}
	}
	return out
}

func TestService_Drift(t *testing.T) {
	fake := &fakeHistory{
		latest: allAt(1.0),
		asOf:   map[string]map[string]history.Entry{"2026-08-31": allAt(0.5)},
	}
	svc := newService(t, fake, nil)

	d, err := svc.Drift(context.Background(), KindOverall, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-31", d.Since)
	assert.Empty(t, d.PreviousMeetingDate)
	assert.InDelta(t, 0.5, d.PreviousSignal, 1e-9)
	assert.InDelta(t, 1.0, d.CurrentSignal, 1e-9)
	assert.InDelta(t, 0.5, d.Drift, 1e-9)
	assert.Equal(t, history.TrendHawkish, d.Direction)

	fake.asOf["2026-09-15"] = allAt(0.9)
	d, err = svc.Drift(context.Background(), KindOverall, "2026-09-15")
	require.NoError(t, err)
	assert.Equal(t, history.TrendStable, d.Direction)
}

func TestService_Errors(t *testing.T) {
	svc := newService(t, &fakeHistory{err: errors.New("disk gone")}, boeCalendar(t))

	_, err := svc.Compute(context.Background(), KindOverall)
	assert.Error(t, err)
	_, err = svc.ComputeAsOf(context.Background(), KindOverall, "not-a-date")
	assert.Error(t, err)
	_, err = svc.Drift(context.Background(), KindOverall, "2026-01-01")
	assert.Error(t, err)
	_, err = svc.Decisions(context.Background(), KindOverall, 3)
	assert.Error(t, err)
}

func TestService_DriftSincePreviousMeeting(t *testing.T) {
	fake := &fakeHistory{
		latest: allAt(1.0),
		asOf:   map[string]map[string]history.Entry{"2026-09-17": allAt(-0.5)},
	}
	svc := newService(t, fake, boeCalendar(t))

	d, err := svc.Drift(context.Background(), KindOverall, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-17", d.Since)
	assert.Equal(t, "2026-09-17", d.PreviousMeetingDate)
	assert.Empty(t, d.PreviousDecision)
	assert.InDelta(t, -0.5, d.PreviousSignal, 1e-9)
	assert.InDelta(t, 1.5, d.Drift, 1e-9)
	assert.Equal(t, []string{"2026-09-17"}, fake.dates)

	// An explicit date never reports a meeting.
	fake.asOf["2026-09-01"] = allAt(1.0)
	d, err = svc.Drift(context.Background(), KindOverall, "2026-09-01")
	require.NoError(t, err)
	assert.Empty(t, d.PreviousMeetingDate)
}

func TestService_DriftRecordsDecision(t *testing.T) {
	cal := fakeCalendar{previous: calendar.Meeting{EndDate: "2026-09-17", Decision: "-25"}}
	svc := newService(t, &fakeHistory{latest: allAt(0)}, cal)

	d, err := svc.Drift(context.Background(), KindOverall, "")
	require.NoError(t, err)
	assert.Equal(t, "-25", d.PreviousDecision)
}

type fakeCalendar struct {
	previous calendar.Meeting
	past     []calendar.Meeting
	rate     *calendar.RateRange
}

func (f fakeCalendar) Previous(time.Time) (calendar.Meeting, bool) {
	return f.previous, f.previous.EndDate != ""
}

func (f fakeCalendar) Past(_ time.Time, n int) []calendar.Meeting {
	if len(f.past) > n {
		return f.past[len(f.past)-n:]
	}
	return f.past
}

func (f fakeCalendar) CurrentRate(time.Time) (calendar.RateRange, bool) {
	if f.rate == nil {
		return calendar.RateRange{}, false
	}
	return *f.rate, true
}

func TestService_Decisions(t *testing.T) {
	cal := fakeCalendar{past: []calendar.Meeting{
		{EndDate: "2026-02-06", Decision: "-25", Rate: &calendar.RateRange{Lower: 3.5, Upper: 3.5}, VoteSplit: "7-2", Note: "Cut"},
		{EndDate: "2026-03-20", Decision: calendar.DecisionHold},
		{EndDate: "2026-05-07", Decision: "+25"},
	}}
	fake := &fakeHistory{asOf: map[string]map[string]history.Entry{
		"2026-02-06": allAt(-3.0),
		"2026-03-20": allAt(0.1),
		"2026-05-07": allAt(-1.0),
	}}
	svc := newService(t, fake, cal)

	got, err := svc.Decisions(context.Background(), KindOverall, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2026-02-06", "2026-03-20", "2026-05-07"}, fake.dates)

	assert.InDelta(t, -3.0, got[0].SignalScore, 1e-9)
	got[0].SignalScore = 0
	assert.Equal(t, Decision{
		MeetingDate:      "2026-02-06",
		Decision:         "-25",
		RateRange:        "3.50%",
		VoteSplit:        "7-2",
		ImpliedAction:    "Cut 25bp",
		ImpliedDirection: DirectionEasing,
		Match:            true,
		StatementNote:    "Cut",
	}, got[0])
	assert.True(t, got[1].Match)
	assert.Equal(t, "N/A", got[1].RateRange)
	assert.False(t, got[2].Match)
	assert.Equal(t, DirectionEasing, got[2].ImpliedDirection)

	got, err = svc.Decisions(context.Background(), KindOverall, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2026-05-07", got[0].MeetingDate)
}

func TestService_DecisionsWithoutCalendar(t *testing.T) {
	svc := newService(t, &fakeHistory{}, nil)
	got, err := svc.Decisions(context.Background(), KindOverall, 6)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_ProjectedRate(t *testing.T) {
	fake := &fakeHistory{
		latest: allAt(-4.0),
		asOf:   map[string]map[string]history.Entry{"2025-05-01": allAt(2.5)},
	}
	svc := newService(t, fake, boeCalendar(t))

	sig, err := svc.Compute(context.Background(), KindOverall)
	require.NoError(t, err)
	require.NotNil(t, sig.Action.ProjectedRate)
	assert.Equal(t, calendar.RateRange{Lower: 3.0, Upper: 3.0}, *sig.Action.ProjectedRate)

	// Bank Rate was 4.50% before the May 2025 cut.
	sig, err = svc.ComputeAsOf(context.Background(), KindOverall, "2025-05-01")
	require.NoError(t, err)
	require.NotNil(t, sig.Action.ProjectedRate)
	assert.Equal(t, calendar.RateRange{Lower: 4.75, Upper: 4.75}, *sig.Action.ProjectedRate)

	assert.Nil(t, svc.Action(0).ProjectedRate)
	assert.Nil(t, newService(t, fake, nil).Action(-4).ProjectedRate)
}

func TestNewDrift(t *testing.T) {
	assert.Equal(t, history.TrendDovish, NewDrift(KindOverall, "", 1, 0, stance.DefaultScale).Direction)
	assert.Equal(t, history.TrendStable, NewDrift(KindOverall, "", 1, 0.8, stance.DefaultScale).Direction)
}
