package calendar

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/neoyipeng2018/central-bank-tracker/internal/modules/participants"
	"gopkg.in/yaml.v3"
)

// ErrUnknownCommittee is returned by New for a committee without a schedule.
var ErrUnknownCommittee = errors.New("no meeting schedule for committee")

// Calendar is the sorted meeting schedule of one committee. It is read-only
// after construction and safe for concurrent use.
type Calendar struct {
	committee participants.Committee
	meetings  []Meeting
}

type meetingsFile struct {
	Meetings []Meeting `yaml:"meetings"`
}

// New returns the built-in schedule of committee. A non-empty path names a
// YAML file whose meetings are merged in; a file meeting replaces the
// built-in meeting with the same end date, so past decisions can be
// recorded without a release.
func New(committee participants.Committee, path string) (*Calendar, error) {
	var builtin []Meeting
	switch committee {
	case participants.CommitteeFOMC:
		builtin = fomcMeetings
	case participants.CommitteeBoE:
		builtin = boeMeetings
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommittee, committee)
	}

	byDate := make(map[string]Meeting, len(builtin))
	for _, m := range builtin {
		byDate[m.EndDate] = m
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read meetings file: %w", err)
		}
		var f meetingsFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse meetings file: %w", err)
		}
		for _, m := range f.Meetings {
			if m.StartDate == "" {
				m.StartDate = m.EndDate
			}
			byDate[m.EndDate] = m
		}
	}

	c := &Calendar{committee: committee, meetings: make([]Meeting, 0, len(byDate))}
	for _, m := range byDate {
		if err := m.validate(); err != nil {
			return nil, err
		}
		c.meetings = append(c.meetings, m)
	}
	sort.Slice(c.meetings, func(i, j int) bool {
		return c.meetings[i].EndDate < c.meetings[j].EndDate
	})
	return c, nil
}

// Committee returns the committee the schedule belongs to.
func (c *Calendar) Committee() participants.Committee {
	return c.committee
}

// Meetings returns every meeting, oldest first.
func (c *Calendar) Meetings() []Meeting {
	out := make([]Meeting, len(c.meetings))
	copy(out, c.meetings)
	return out
}

func day(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Next returns the first meeting whose decision day is ref or later.
func (c *Calendar) Next(ref time.Time) (Meeting, bool) {
	today := day(ref)
	for _, m := range c.meetings {
		if m.EndDate >= today {
			return m, true
		}
	}
	return Meeting{}, false
}

// Previous returns the last meeting whose decision day is before ref.
func (c *Calendar) Previous(ref time.Time) (Meeting, bool) {
	today := day(ref)
	for i := len(c.meetings) - 1; i >= 0; i-- {
		if c.meetings[i].EndDate < today {
			return c.meetings[i], true
		}
	}
	return Meeting{}, false
}

// DaysUntilNext returns the whole days from ref to the next decision day.
func (c *Calendar) DaysUntilNext(ref time.Time) (int, bool) {
	next, ok := c.Next(ref)
	if !ok {
		return 0, false
	}
	end, _ := parseDate(next.EndDate)
	today, _ := parseDate(day(ref))
	return int(end.Sub(today).Hours() / 24), true
}

// BlackoutStart is the first day of the communications blackout before m:
// the second Saturday before the meeting starts.
func BlackoutStart(m Meeting) time.Time {
	start, _ := parseDate(m.StartDate)
	back := (int(start.Weekday()) + 1) % 7
	if back == 0 {
		back = 7
	}
	return start.AddDate(0, 0, -back-7)
}

// InBlackout reports whether ref falls in the blackout of the next meeting,
// which lasts through the decision day.
func (c *Calendar) InBlackout(ref time.Time) bool {
	next, ok := c.Next(ref)
	if !ok {
		return false
	}
	today := day(ref)
	return day(BlackoutStart(next)) <= today && today <= next.EndDate
}

// Past returns up to n decided meetings before ref, oldest first.
func (c *Calendar) Past(ref time.Time, n int) []Meeting {
	today := day(ref)
	var out []Meeting
	for _, m := range c.meetings {
		if m.EndDate < today && m.Decided() {
			out = append(out, m)
		}
	}
	if n >= 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// CurrentRate returns the rate set by the last meeting before ref that
// recorded one.
func (c *Calendar) CurrentRate(ref time.Time) (RateRange, bool) {
	today := day(ref)
	for i := len(c.meetings) - 1; i >= 0; i-- {
		m := c.meetings[i]
		if m.EndDate < today && m.Rate != nil {
			return *m.Rate, true
		}
	}
	return RateRange{}, false
}

// InRange returns the meetings whose decision day lies in [from, to]. Empty
// bounds are open.
func (c *Calendar) InRange(from, to string) []Meeting {
	out := []Meeting{}
	for _, m := range c.meetings {
		if (from == "" || m.EndDate >= from) && (to == "" || m.EndDate <= to) {
			out = append(out, m)
		}
	}
	return out
}
