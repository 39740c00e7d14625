package participants

import (
	"fmt"
	"strings"

	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
)

const (
	boardOfGovernors = "Board of Governors"
	bankOfEngland    = "Bank of England"
)

func fomcRoster() []Participant {
	gov := func(id, name string, role Role, lean float64) Participant {
		return Participant{
			ID: id, Name: name, Title: string(role), Institution: boardOfGovernors,
			Committee: CommitteeFOMC, Role: role, Voter: true, Governor: true,
			LeanPolicy: lean,
		}
	}
	pres := func(id, name, bank string, voter bool, lean float64) Participant {
		return Participant{
			ID: id, Name: name, Title: string(RolePresident), Institution: "FRB " + bank,
			Committee: CommitteeFOMC, Role: RolePresident, Voter: voter,
			LeanPolicy: lean,
		}
	}

	return []Participant{
		gov("powell", "Jerome H. Powell", RoleChair, 0.05),
		gov("jefferson", "Philip N. Jefferson", RoleViceChair, -0.10),
		gov("barr", "Michael S. Barr", RoleViceChairForSupervision, -0.20),
		gov("bowman", "Michelle W. Bowman", RoleGovernor, 0.55),
		gov("waller", "Christopher J. Waller", RoleGovernor, 0.45),
		gov("cook", "Lisa D. Cook", RoleGovernor, -0.25),
		gov("kugler", "Adriana D. Kugler", RoleGovernor, -0.15),

		pres("williams", "John C. Williams", "New York", true, -0.05),
		pres("harker", "Patrick T. Harker", "Philadelphia", true, 0.10),
		pres("barkin", "Thomas I. Barkin", "Richmond", true, 0.15),
		pres("bostic", "Raphael W. Bostic", "Atlanta", true, -0.10),
		pres("daly", "Mary C. Daly", "San Francisco", true, -0.15),

		pres("collins", "Susan M. Collins", "Boston", false, 0.05),
		pres("hammack", "Beth M. Hammack", "Cleveland", false, 0.20),
		pres("goolsbee", "Austan D. Goolsbee", "Chicago", false, -0.35),
		pres("musalem", "Alberto G. Musalem", "St. Louis", false, 0.25),
		pres("schmid", "Jeffrey R. Schmid", "Kansas City", false, 0.35),
		pres("logan", "Lorie K. Logan", "Dallas", false, 0.40),
		pres("kashkari", "Neel Kashkari", "Minneapolis", false, -0.30),
	}
}

// MPC leans are recorded on the +/-5 scale and stored here on the unit scale.
func boeRoster() []Participant {
	member := func(id, name, title string, role Role, policy5, bs5 float64) Participant {
		return Participant{
			ID: id, Name: name, Title: title, Institution: bankOfEngland,
			Committee: CommitteeBoE, Role: role, Voter: true,
			LeanPolicy: policy5 / 5, LeanBalanceSheet: bs5 / 5,
		}
	}

	return []Participant{
		member("bailey", "Andrew Bailey", "Governor", RoleGovernor, 0.25, 0.25),
		member("breeden", "Sarah Breeden", "Deputy Governor, Financial Stability", RoleDeputyGovernor, -0.25, 0),
		member("lombardelli", "Clare Lombardelli", "Deputy Governor, Monetary Policy", RoleDeputyGovernor, -0.25, 0),
		member("ramsden", "Dave Ramsden", "Deputy Governor, Markets & Banking", RoleDeputyGovernor, -0.75, -0.25),
		member("pill", "Huw Pill", "Chief Economist", RoleChiefEconomist, 1.00, 0.50),
		member("greene", "Megan Greene", "External Member", RoleExternalMember, 1.25, 0.50),
		member("mann", "Catherine L Mann", "External Member", RoleExternalMember, 2.00, 1.00),
		member("dhingra", "Swati Dhingra", "External Member", RoleExternalMember, -2.50, -1.00),
		member("taylor", "Alan Taylor", "External Member", RoleExternalMember, -1.00, -0.50),
	}
}

// Influence weights by role. FOMC presidents without a vote get the
// alternate weight.
var roleWeights = map[Committee]map[Role]float64{
	CommitteeFOMC: {
		RoleChair:                   3.0,
		RoleViceChair:               1.5,
		RoleViceChairForSupervision: 1.25,
		RoleGovernor:                1.0,
		RolePresident:               1.0,
	},
	CommitteeBoE: {
		RoleGovernor:       3.0,
		RoleDeputyGovernor: 1.5,
		RoleChiefEconomist: 1.25,
		RoleExternalMember: 1.0,
	},
}

const alternateWeight = 0.25

// Roster is the read-only member list of one committee.
type Roster struct {
	committee Committee
	members   []Participant
	byID      map[string]int
}

// NewRoster returns the built-in roster for committee.
func NewRoster(committee Committee) (*Roster, error) {
	switch committee {
	case CommitteeFOMC:
		return newRoster(committee, fomcRoster()), nil
	case CommitteeBoE:
		return newRoster(committee, boeRoster()), nil
	default:
		return nil, fmt.Errorf("unknown committee %q", committee)
	}
}

func newRoster(committee Committee, members []Participant) *Roster {
	r := &Roster{committee: committee, members: members, byID: make(map[string]int, len(members))}
	for i, p := range members {
		r.byID[p.ID] = i
	}
	return r
}

// Committee returns the roster's committee.
func (r *Roster) Committee() Committee {
	return r.committee
}

// All returns every member in roster order.
func (r *Roster) All() []Participant {
	out := make([]Participant, len(r.members))
	copy(out, r.members)
	return out
}

// Get returns the member with the given id.
func (r *Roster) Get(id string) (Participant, error) {
	i, ok := r.byID[strings.ToLower(id)]
	if !ok {
		return Participant{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.members[i], nil
}

// Find returns the first member whose name contains name, ignoring case.
func (r *Roster) Find(name string) (Participant, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Participant{}, fmt.Errorf("%w: empty name", ErrNotFound)
	}
	for _, p := range r.members {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return p, nil
		}
	}
	return Participant{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Resolve looks a member up by id, falling back to a name match.
func (r *Roster) Resolve(idOrName string) (Participant, error) {
	if p, err := r.Get(idOrName); err == nil {
		return p, nil
	}
	return r.Find(idOrName)
}

// Lean returns the historical lean of a member on scale.
func (r *Roster) Lean(id string, scale stance.Scale) (stance.Lean, error) {
	p, err := r.Get(id)
	if err != nil {
		return stance.Lean{}, err
	}
	return p.Lean(scale), nil
}

// Voters returns the members who vote.
func (r *Roster) Voters() []Participant {
	var out []Participant
	for _, p := range r.members {
		if p.Voter {
			out = append(out, p)
		}
	}
	return out
}

// RoleWeight returns the influence weight of p in the committee signal.
func RoleWeight(p Participant) float64 {
	if p.Committee == CommitteeFOMC && !p.Voter {
		return alternateWeight
	}
	if w, ok := roleWeights[p.Committee][p.Role]; ok {
		return w
	}
	return 1.0
}
