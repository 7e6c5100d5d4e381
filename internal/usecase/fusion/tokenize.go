package fusion

import (
	"strings"
	"unicode"
)

// minTokenLength filters out tokens too short to carry signal.
const minTokenLength = 3

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "her": {}, "was": {}, "one": {},
	"our": {}, "out": {}, "his": {}, "has": {}, "have": {}, "this": {},
	"that": {}, "with": {}, "from": {}, "they": {}, "been": {}, "were": {},
	"their": {}, "there": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "about": {}, "into": {}, "over": {}, "under": {},
	"then": {}, "them": {}, "these": {}, "those": {}, "some": {},
	"such": {}, "only": {}, "also": {}, "more": {}, "most": {},
	"other": {}, "than": {}, "when": {}, "where": {}, "which": {},
	"what": {}, "your": {},
}

// Tokenize normalizes text for sparse scoring: lowercase, punctuation
// stripped, stopwords and tokens shorter than three characters removed,
// duplicates dropped. Order follows first appearance so output is
// deterministic. Never fails; empty input yields an empty set.
func Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minTokenLength {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}
