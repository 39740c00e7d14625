package participants

import (
	"testing"

	"github.com/neoyipeng2018/central-bank-tracker/internal/stance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoster(t *testing.T) {
	fomc, err := NewRoster(CommitteeFOMC)
	require.NoError(t, err)
	assert.Len(t, fomc.All(), 19)
	assert.Len(t, fomc.Voters(), 12)

	boe, err := NewRoster(CommitteeBoE)
	require.NoError(t, err)
	assert.Len(t, boe.All(), 9)
	assert.Len(t, boe.Voters(), 9)

	_, err = NewRoster("ecb")
	assert.Error(t, err)
}

func TestRoster_UniqueIDs(t *testing.T) {
	for _, c := range []Committee{CommitteeFOMC, CommitteeBoE} {
		r, err := NewRoster(c)
		require.NoError(t, err)
		seen := map[string]bool{}
		for _, p := range r.All() {
			assert.False(t, seen[p.ID], p.ID)
			seen[p.ID] = true
			assert.LessOrEqual(t, p.LeanPolicy, 1.0)
			assert.GreaterOrEqual(t, p.LeanPolicy, -1.0)
		}
	}
}

func TestRoster_GetAndFind(t *testing.T) {
	r, err := NewRoster(CommitteeFOMC)
	require.NoError(t, err)

	p, err := r.Get("Powell")
	require.NoError(t, err)
	assert.Equal(t, RoleChair, p.Role)

	_, err = r.Get("volcker")
	assert.ErrorIs(t, err, ErrNotFound)

	p, err = r.Find("waller")
	require.NoError(t, err)
	assert.Equal(t, "Christopher J. Waller", p.Name)

	p, err = r.Find("LISA")
	require.NoError(t, err)
	assert.Equal(t, "cook", p.ID)

	_, err = r.Find("")
	assert.ErrorIs(t, err, ErrNotFound)

	p, err = r.Resolve("Neel")
	require.NoError(t, err)
	assert.Equal(t, "kashkari", p.ID)
}

func TestRoster_Lean(t *testing.T) {
	fomc, _ := NewRoster(CommitteeFOMC)
	lean, err := fomc.Lean("bowman", stance.DefaultScale)
	require.NoError(t, err)
	assert.InDelta(t, 2.75, lean.Policy, 1e-12)
	assert.Equal(t, 0.0, lean.BalanceSheet)

	boe, _ := NewRoster(CommitteeBoE)
	lean, err = boe.Lean("mann", stance.DefaultScale)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, lean.Policy, 1e-12)
	assert.InDelta(t, 1.0, lean.BalanceSheet, 1e-12)

	lean, err = boe.Lean("dhingra", stance.UnitScale)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, lean.Policy, 1e-12)

	_, err = boe.Lean("powell", stance.DefaultScale)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoleWeight(t *testing.T) {
	fomc, _ := NewRoster(CommitteeFOMC)
	boe, _ := NewRoster(CommitteeBoE)

	tests := []struct {
		roster *Roster
		id     string
		want   float64
	}{
		{fomc, "powell", 3.0},
		{fomc, "jefferson", 1.5},
		{fomc, "barr", 1.25},
		{fomc, "waller", 1.0},
		{fomc, "williams", 1.0},
		{fomc, "goolsbee", 0.25},
		{boe, "bailey", 3.0},
		{boe, "ramsden", 1.5},
		{boe, "pill", 1.25},
		{boe, "taylor", 1.0},
	}
	for _, tt := range tests {
		p, err := tt.roster.Get(tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, RoleWeight(p), tt.id)
	}
}
