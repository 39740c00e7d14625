package stance

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Document is a snippet with the metadata carried into evidence.
type Document struct {
	Title  string
	Body   string
	URL    string
	Source string
}

// Text returns the scored text: title and body joined by a space.
func (d Document) Text() string {
	return strings.TrimSpace(d.Title + " " + d.Body)
}

// Evidence explains one snippet's contribution with the phrases it matched
// and a representative quote.
type Evidence struct {
	Title      string      `json:"title" msgpack:"title"`
	URL        string      `json:"url" msgpack:"url"`
	SourceType string      `json:"source_type" msgpack:"source_type"`
	Keywords   []string    `json:"keywords" msgpack:"keywords"`
	Directions []Direction `json:"directions" msgpack:"directions"`
	Dimensions []Dimension `json:"dimensions" msgpack:"dimensions"`
	Quote      string      `json:"quote" msgpack:"quote"`
	Score      float64     `json:"score" msgpack:"score"`
}

// ExtractQuote returns the text around the first case-insensitive occurrence
// of term, about contextChars wide and snapped outward to word boundaries.
// Truncated ends are marked with "...". Whitespace runs in text are collapsed
// first so that normalized phrases can be found. Returns "" when term does
// not occur.
func ExtractQuote(text, term string, contextChars int) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	needle := []rune(Normalize(term))
	if len(needle) == 0 {
		return ""
	}

	idx := indexFold(runes, needle)
	if idx < 0 {
		return ""
	}

	half := contextChars / 2
	start := max(0, idx-half)
	end := min(len(runes), idx+len(needle)+half)
	if start > 0 {
		for i := start - 1; i >= 0; i-- {
			if runes[i] == ' ' {
				start = i + 1
				break
			}
		}
	}
	if end < len(runes) {
		for i := end; i < len(runes); i++ {
			if runes[i] == ' ' {
				end = i
				break
			}
		}
	}

	quote := strings.TrimSpace(string(runes[start:end]))
	if start > 0 {
		quote = "..." + quote
	}
	if end < len(runes) {
		quote += "..."
	}
	return quote
}

func indexFold(haystack, needle []rune) int {
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if unicode.ToLower(haystack[i+j]) != r {
				continue outer
			}
		}
		return i
	}
	return -1
}

// Evidence builds the evidence of doc from its already computed score. ok
// is false when no phrase matched or no quote could be extracted.
func (p *Pipeline) Evidence(doc Document, score SnippetScore) (ev Evidence, ok bool) {
	text := doc.Text()
	if text == "" {
		return Evidence{}, false
	}

	ev = Evidence{
		Title:      doc.Title,
		URL:        doc.URL,
		SourceType: doc.Source,
		Score:      score.Overall,
	}
	groups := []struct {
		dir     Direction
		dim     Dimension
		matches map[string]int
	}{
		{DirectionHawkish, DimensionPolicy, score.Policy.HawkishMatches},
		{DirectionHawkish, DimensionBalanceSheet, score.BalanceSheet.HawkishMatches},
		{DirectionDovish, DimensionPolicy, score.Policy.DovishMatches},
		{DirectionDovish, DimensionBalanceSheet, score.BalanceSheet.DovishMatches},
	}
	for _, g := range groups {
		for _, phrase := range sortedKeys(g.matches) {
			quote := ExtractQuote(text, phrase, p.cfg.QuoteContextChars)
			if quote == "" {
				continue
			}
			ev.Keywords = append(ev.Keywords, phrase)
			ev.Directions = append(ev.Directions, g.dir)
			ev.Dimensions = append(ev.Dimensions, g.dim)
			if ev.Quote == "" {
				ev.Quote = quote
			}
		}
	}
	return ev, len(ev.Keywords) > 0
}

// RankEvidence sorts items by descending absolute score, keeping input order
// among ties.
func RankEvidence(items []Evidence) {
	sort.SliceStable(items, func(i, j int) bool {
		return math.Abs(items[i].Score) > math.Abs(items[j].Score)
	})
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
