package stance

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Direction is the policy direction a term signals.
type Direction string

const (
	DirectionHawkish Direction = "hawkish"
	DirectionDovish  Direction = "dovish"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionHawkish || d == DirectionDovish
}

// Dimension is one of the two independently scored policy dimensions.
type Dimension string

const (
	DimensionPolicy       Dimension = "policy"
	DimensionBalanceSheet Dimension = "balance_sheet"
)

// ErrInvalidTerm is returned when a dictionary entry fails validation.
var ErrInvalidTerm = errors.New("invalid dictionary term")

// TermEntry is one weighted phrase of a dictionary.
type TermEntry struct {
	Phrase    string    `yaml:"phrase" json:"phrase"`
	Direction Direction `yaml:"direction" json:"direction"`
	Weight    float64   `yaml:"weight" json:"weight"`
}

// Validate checks a single entry. Weights must lie in [0, 1].
func (t TermEntry) Validate() error {
	if Normalize(t.Phrase) == "" {
		return fmt.Errorf("%w: empty phrase", ErrInvalidTerm)
	}
	if !t.Direction.Valid() {
		return fmt.Errorf("%w: %q has unknown direction %q", ErrInvalidTerm, t.Phrase, t.Direction)
	}
	if math.IsNaN(t.Weight) || t.Weight < 0 || t.Weight > 1 {
		return fmt.Errorf("%w: %q has weight %v outside [0,1]", ErrInvalidTerm, t.Phrase, t.Weight)
	}
	return nil
}

// Dictionary is the term list of one dimension. Order carries no meaning.
type Dictionary []TermEntry

// Validate checks every entry of the dictionary.
func (d Dictionary) Validate() error {
	for _, t := range d {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Duplicates returns the normalized phrases that occur more than once.
// Duplicates are legal; each occurrence is scored independently.
func (d Dictionary) Duplicates() []string {
	seen := make(map[string]int, len(d))
	for _, t := range d {
		seen[Normalize(t.Phrase)]++
	}
	var dups []string
	for phrase, n := range seen {
		if n > 1 {
			dups = append(dups, phrase)
		}
	}
	sort.Strings(dups)
	return dups
}

// Contains reports whether phrase is one of the dictionary's terms.
func (d Dictionary) Contains(phrase string) bool {
	p := Normalize(phrase)
	for _, t := range d {
		if Normalize(t.Phrase) == p {
			return true
		}
	}
	return false
}

// normalized returns a copy with every phrase normalized.
func (d Dictionary) normalized() Dictionary {
	out := make(Dictionary, len(d))
	for i, t := range d {
		t.Phrase = Normalize(t.Phrase)
		out[i] = t
	}
	return out
}

// merge returns d with overrides applied: an override replaces every default
// entry with the same phrase, new phrases are appended.
func (d Dictionary) merge(overrides Dictionary) Dictionary {
	if len(overrides) == 0 {
		return d
	}
	replaced := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		replaced[Normalize(o.Phrase)] = true
	}
	out := make(Dictionary, 0, len(d)+len(overrides))
	for _, t := range d {
		if !replaced[Normalize(t.Phrase)] {
			out = append(out, t)
		}
	}
	return append(out, overrides...)
}

// Dictionaries bundles the per-dimension term lists.
type Dictionaries struct {
	Policy       Dictionary `yaml:"policy" json:"policy"`
	BalanceSheet Dictionary `yaml:"balance_sheet" json:"balance_sheet"`
}

// Validate checks both dictionaries.
func (d Dictionaries) Validate() error {
	if err := d.Policy.Validate(); err != nil {
		return fmt.Errorf("policy dictionary: %w", err)
	}
	if err := d.BalanceSheet.Validate(); err != nil {
		return fmt.Errorf("balance_sheet dictionary: %w", err)
	}
	return nil
}

// For returns the dictionary of a dimension.
func (d Dictionaries) For(dim Dimension) Dictionary {
	if dim == DimensionBalanceSheet {
		return d.BalanceSheet
	}
	return d.Policy
}

// DimensionOf reports which dimension a matched phrase belongs to. Phrases
// found in neither dictionary are attributed to policy.
func (d Dictionaries) DimensionOf(phrase string) Dimension {
	if d.BalanceSheet.Contains(phrase) {
		return DimensionBalanceSheet
	}
	return DimensionPolicy
}

// LoadDictionaries returns the built-in dictionaries, merged with the YAML
// overrides at path when path is non-empty. The result is validated, so a
// malformed file fails here rather than during scoring.
func LoadDictionaries(path string) (Dictionaries, error) {
	dicts := DefaultDictionaries()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Dictionaries{}, fmt.Errorf("failed to read dictionary file: %w", err)
		}
		var overrides Dictionaries
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return Dictionaries{}, fmt.Errorf("failed to parse dictionary file %s: %w", path, err)
		}
		if err := overrides.Validate(); err != nil {
			return Dictionaries{}, fmt.Errorf("dictionary file %s: %w", path, err)
		}
		dicts.Policy = dicts.Policy.merge(overrides.Policy)
		dicts.BalanceSheet = dicts.BalanceSheet.merge(overrides.BalanceSheet)
	}

	dicts.Policy = dicts.Policy.normalized()
	dicts.BalanceSheet = dicts.BalanceSheet.normalized()
	if err := dicts.Validate(); err != nil {
		return Dictionaries{}, err
	}
	return dicts, nil
}
