// Package query classifies free-text queries by shape.
package query

import "strings"

// Type categorizes a query for retrieval weighting.
type Type string

const (
	// Keyword marks short or exact-phrase queries best served by sparse search.
	Keyword Type = "keyword"
	// Semantic marks long natural-language questions best served by dense search.
	Semantic Type = "semantic"
	// Mixed marks queries with no strong signal either way.
	Mixed Type = "mixed"
)

// interrogatives are the question words that mark a natural-language query.
var interrogatives = map[string]struct{}{
	"how": {}, "what": {}, "why": {}, "when": {},
	"where": {}, "who": {}, "which": {},
}

// Classify categorizes a query string by pure string analysis.
// Empty queries, quoted exact phrases, and head queries of up to three
// words classify as Keyword; questions of seven or more words as
// Semantic; everything else as Mixed.
func Classify(q string) Type {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return Keyword
	}

	words := strings.Fields(trimmed)

	if strings.Contains(trimmed, `"`) || len(words) <= 3 {
		return Keyword
	}

	if len(words) >= 7 && containsInterrogative(words) {
		return Semantic
	}

	return Mixed
}

func containsInterrogative(words []string) bool {
	for _, w := range words {
		w = strings.ToLower(strings.Trim(w, ".,;:!?"))
		if _, ok := interrogatives[w]; ok {
			return true
		}
	}
	return false
}
