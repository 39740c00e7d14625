package stance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snippet(policy, policyConf, bs, bsConf float64) SnippetScore {
	return Combine(
		DimensionScore{Raw: policy, Confidence: policyConf},
		DimensionScore{Raw: bs, Confidence: bsConf},
		DefaultWeights(),
	)
}

func TestCombine(t *testing.T) {
	withBS := snippet(2.0, 0.4, -1.0, 0.2)
	assert.InDelta(t, 0.7*2.0+0.3*-1.0, withBS.Overall, 1e-12)
	assert.Equal(t, 0.4, withBS.Confidence)
	assert.True(t, withBS.HasBalanceSheet())

	withoutBS := snippet(2.0, 0.4, 0, 0)
	assert.Equal(t, 2.0, withoutBS.Overall, "absent balance sheet must not pull toward zero")
	assert.False(t, withoutBS.HasBalanceSheet())
}

func TestAggregateScores_IgnoresZeroConfidence(t *testing.T) {
	agg := AggregateScores([]SnippetScore{
		snippet(5.0, 1.0, 0, 0),
		snippet(0.0, 0.0, 0, 0),
	})

	v, ok := agg.Policy.Get()
	require.True(t, ok)
	assert.Equal(t, 5.0, v)
	assert.False(t, agg.BalanceSheet.Present())
	assert.Equal(t, 2, agg.SnippetCount)
}

func TestAggregateScores_AbsentWithoutSignal(t *testing.T) {
	agg := AggregateScores(nil)
	assert.False(t, agg.Policy.Present())
	assert.False(t, agg.BalanceSheet.Present())
	assert.False(t, agg.Overall.Present())

	agg = AggregateScores([]SnippetScore{snippet(0, 0, 0, 0), snippet(0, 0, 0, 0)})
	assert.False(t, agg.Policy.Present())
	assert.Equal(t, 2, agg.SnippetCount)
}

func TestAggregateScores_BalanceSheetOnlyFromMatchingSnippets(t *testing.T) {
	agg := AggregateScores([]SnippetScore{
		snippet(1.0, 0.5, -2.0, 0.5),
		snippet(3.0, 0.5, 0, 0),
	})

	assert.InDelta(t, 2.0, agg.Policy.Or(0), 1e-12)
	assert.InDelta(t, -2.0, agg.BalanceSheet.Or(0), 1e-12)
}

func TestAggregateScores_OrderInvariant(t *testing.T) {
	scores := []SnippetScore{
		snippet(4.0, 0.8, 1.0, 0.3),
		snippet(-2.5, 0.2, 0, 0),
		snippet(1.25, 0.6, -3.0, 0.9),
		snippet(0, 0, 0, 0),
		snippet(-5.0, 1.0, 5.0, 1.0),
	}
	want := AggregateScores(scores)

	perms := [][]int{{4, 3, 2, 1, 0}, {2, 0, 4, 1, 3}, {1, 4, 0, 3, 2}}
	for _, perm := range perms {
		shuffled := make([]SnippetScore, len(scores))
		for i, j := range perm {
			shuffled[i] = scores[j]
		}
		got := AggregateScores(shuffled)
		assert.InDelta(t, want.Policy.Or(0), got.Policy.Or(0), 1e-12)
		assert.InDelta(t, want.BalanceSheet.Or(0), got.BalanceSheet.Or(0), 1e-12)
		assert.InDelta(t, want.Overall.Or(0), got.Overall.Or(0), 1e-12)
	}
}

func TestReading_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Reading `json:"a"`
		B Reading `json:"b"`
	}{Present(1.5), Absent()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(data))

	var r struct {
		A Reading `json:"a"`
		B Reading `json:"b"`
	}
	require.NoError(t, json.Unmarshal(data, &r))
	assert.Equal(t, Present(1.5), r.A)
	assert.False(t, r.B.Present())
}
