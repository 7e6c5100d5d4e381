package fusion

import (
	"math"
	"strings"
	"unicode"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

// BM25Params holds the BM25 tuning constants.
type BM25Params struct {
	K1 float64 // term-frequency saturation, typically 1.2-2.0
	B  float64 // length-normalization strength in [0,1]
}

// DefaultBM25Params returns the conventional k1=1.2, b=0.75 parameters.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: 1.2, B: 0.75}
}

// BM25Score computes a relevance score for one term/document pair.
//
// The idf uses ln((N - n + 0.5)/(n + 0.5) + 1): the +1 keeps idf
// non-negative even for terms present in most documents, unlike the
// classical formula. Returns 0 for termFreq == 0, which also guards
// degenerate corpora.
func BM25Score(termFreq, docLength int, avgDocLength float64, docCount, docsWithTerm int, p BM25Params) float64 {
	if termFreq == 0 {
		return 0
	}
	if avgDocLength <= 0 {
		avgDocLength = 1
	}

	idf := math.Log(
		(float64(docCount)-float64(docsWithTerm)+0.5)/(float64(docsWithTerm)+0.5) + 1,
	)

	tf := float64(termFreq)
	norm := 1 - p.B + p.B*float64(docLength)/avgDocLength
	saturated := tf * (p.K1 + 1) / (tf + p.K1*norm)

	return idf * saturated
}

// RescoreBM25 assigns BM25 scores computed from within-set statistics.
// Used when the keyword backend returns hits without usable scores:
// the candidate set itself serves as the corpus (docCount, avgDocLength,
// docsWithTerm are all derived from it). Input results are not mutated.
func RescoreBM25(results []result.Result, queryText string, p BM25Params) []result.Result {
	if len(results) == 0 {
		return nil
	}

	terms := Tokenize(queryText)
	if len(terms) == 0 {
		return append([]result.Result(nil), results...)
	}

	docs := make([][]string, len(results))
	var totalLen int
	for i := range results {
		docs[i] = rawTerms(results[i].Content())
		totalLen += len(docs[i])
	}
	avgLen := float64(totalLen) / float64(len(results))

	docsWithTerm := make(map[string]int, len(terms))
	for _, doc := range docs {
		present := make(map[string]struct{})
		for _, w := range doc {
			present[w] = struct{}{}
		}
		for _, t := range terms {
			if _, ok := present[t]; ok {
				docsWithTerm[t]++
			}
		}
	}

	rescored := make([]result.Result, len(results))
	for i := range results {
		freq := make(map[string]int, len(docs[i]))
		for _, w := range docs[i] {
			freq[w]++
		}

		var score float64
		for _, t := range terms {
			score += BM25Score(freq[t], len(docs[i]), avgLen, len(results), docsWithTerm[t], p)
		}
		rescored[i] = results[i].WithScore(score)
	}
	return rescored
}

// rawTerms splits content into lowercase terms without deduplication,
// preserving term frequency and document length.
func rawTerms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
