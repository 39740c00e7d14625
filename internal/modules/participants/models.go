// Package participants holds the committee rosters: who is scored, their
// role, voting status and historical lean.
package participants

import (
	"errors"

	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
)

// ErrNotFound is returned when no participant matches an id or name.
var ErrNotFound = errors.New("participant not found")

// Committee identifies a rate-setting committee.
type Committee string

const (
	CommitteeFOMC Committee = "fomc"
	CommitteeBoE  Committee = "boe"
)

// Role is a participant's position, which sets their influence weight.
type Role string

const (
	RoleChair                   Role = "Chair"
	RoleViceChair               Role = "Vice Chair"
	RoleViceChairForSupervision Role = "Vice Chair for Supervision"
	RoleGovernor                Role = "Governor"
	RolePresident               Role = "President"
	RoleDeputyGovernor          Role = "Deputy Governor"
	RoleChiefEconomist          Role = "Chief Economist"
	RoleExternalMember          Role = "External Member"
)

// Participant is one committee member.
type Participant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Institution string    `json:"institution"`
	Committee   Committee `json:"committee"`
	Role        Role      `json:"role"`
	Voter       bool      `json:"voter"`
	Governor    bool      `json:"governor"`

	// Historical leans on the unit scale [-1, 1].
	LeanPolicy       float64 `json:"lean_policy"`
	LeanBalanceSheet float64 `json:"lean_balance_sheet"`
}

// Lean returns the participant's historical lean on scale.
func (p Participant) Lean(scale stance.Scale) stance.Lean {
	return stance.Lean{
		Policy:       scale.FromUnit(p.LeanPolicy),
		BalanceSheet: scale.FromUnit(p.LeanBalanceSheet),
	}
}
