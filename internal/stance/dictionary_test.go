package stance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entry   TermEntry
		wantErr bool
	}{
		{"valid", hawk("raise rates", 1.0), false},
		{"zero weight", dove("patience", 0), false},
		{"weight above one", hawk("raise rates", 1.5), true},
		{"negative weight", dove("cut rates", -0.1), true},
		{"empty phrase", hawk("   ", 0.5), true},
		{"unknown direction", TermEntry{Phrase: "hold", Direction: "sideways", Weight: 0.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTerm)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDictionary_Duplicates(t *testing.T) {
	d := Dictionary{hawk("raise rates", 1), hawk("Raise  Rates", 0.5), dove("cut rates", 1)}
	assert.Equal(t, []string{"raise rates"}, d.Duplicates())
	assert.Empty(t, testDictionary().Duplicates())
}

func TestDictionaries_DimensionOf(t *testing.T) {
	dicts := DefaultDictionaries()
	assert.Equal(t, DimensionBalanceSheet, dicts.DimensionOf("quantitative tightening"))
	assert.Equal(t, DimensionBalanceSheet, dicts.DimensionOf("Quantitative Easing"))
	assert.Equal(t, DimensionPolicy, dicts.DimensionOf("raise rates"))
	assert.Equal(t, DimensionPolicy, dicts.DimensionOf("not a term"))
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dictionary.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDictionaries_DefaultsWithoutFile(t *testing.T) {
	dicts, err := LoadDictionaries("")
	require.NoError(t, err)
	assert.Len(t, dicts.Policy, len(DefaultDictionaries().Policy))
}

func TestLoadDictionaries_MergesOverrides(t *testing.T) {
	path := writeFile(t, `
policy:
  - phrase: "Raise  Rates"
    direction: hawkish
    weight: 0.5
  - phrase: "hold the line"
    direction: hawkish
    weight: 0.4
balance_sheet:
  - phrase: "reserve management purchases"
    direction: dovish
    weight: 0.6
`)

	dicts, err := LoadDictionaries(path)
	require.NoError(t, err)

	defaults := DefaultDictionaries()
	assert.Len(t, dicts.Policy, len(defaults.Policy)+1)
	assert.Len(t, dicts.BalanceSheet, len(defaults.BalanceSheet)+1)

	var raise []TermEntry
	for _, e := range dicts.Policy {
		if e.Phrase == "raise rates" {
			raise = append(raise, e)
		}
	}
	require.Len(t, raise, 1)
	assert.Equal(t, 0.5, raise[0].Weight)
	assert.True(t, dicts.Policy.Contains("hold the line"))
	assert.Equal(t, DimensionBalanceSheet, dicts.DimensionOf("reserve management purchases"))
}

func TestLoadDictionaries_RejectsInvalidEntry(t *testing.T) {
	path := writeFile(t, `
policy:
  - phrase: "raise rates"
    direction: hawkish
    weight: 2.0
`)
	_, err := LoadDictionaries(path)
	assert.ErrorIs(t, err, ErrInvalidTerm)
}

func TestLoadDictionaries_Errors(t *testing.T) {
	_, err := LoadDictionaries(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadDictionaries(writeFile(t, "policy: [unclosed"))
	assert.Error(t, err)
}
