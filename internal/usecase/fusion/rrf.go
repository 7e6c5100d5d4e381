// Package fusion merges independently-produced dense and sparse candidate
// sets into a single ranked list.
package fusion

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/rankfuse/internal/domain"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

// DefaultRRFK is the Reciprocal Rank Fusion damping constant (standard
// value from Cormack et al. 2009). Larger values flatten the advantage
// of top ranks over tail ranks.
const DefaultRRFK = 60

// ParseMethod converts a config string to a fusion method.
func ParseMethod(s string) (result.Method, error) {
	switch result.Method(s) {
	case result.MethodRRF, result.MethodWeighted:
		return result.Method(s), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidFusionMethod, s)
	}
}

// FuseRRF merges the vector and BM25 candidate lists via Reciprocal
// Rank Fusion: score(d) = 1/(k + rank_vec(d)) + 1/(k + rank_bm25(d)),
// with ranks 1-based. A side where the document is absent contributes 0
// (rank treated as infinite), so single-list documents stay eligible
// but score below documents present in both. The first-seen occurrence
// supplies content and metadata; the vector list is consumed first.
func FuseRRF(vec, bm25 []result.Result, k int) []result.Fused {
	if k <= 0 {
		k = DefaultRRFK
	}

	type entry struct {
		res        result.Result
		score      float64
		vectorRank int
		bm25Rank   int
	}

	merged := make(map[string]*entry, len(vec)+len(bm25))
	order := make([]string, 0, len(vec)+len(bm25))

	for i := range vec {
		rank := i + 1
		merged[vec[i].ID()] = &entry{
			res:        vec[i],
			score:      1.0 / float64(k+rank),
			vectorRank: rank,
		}
		order = append(order, vec[i].ID())
	}

	for i := range bm25 {
		rank := i + 1
		if e, ok := merged[bm25[i].ID()]; ok {
			e.score += 1.0 / float64(k+rank)
			e.bm25Rank = rank
			continue
		}
		merged[bm25[i].ID()] = &entry{
			res:      bm25[i],
			score:    1.0 / float64(k+rank),
			bm25Rank: rank,
		}
		order = append(order, bm25[i].ID())
	}

	fused := make([]result.Fused, 0, len(order))
	for _, id := range order {
		e := merged[id]
		fused = append(fused, result.NewFused(e.res, e.score, e.vectorRank, e.bm25Rank, result.MethodRRF))
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].FusedScore() > fused[j].FusedScore()
	})

	return fused
}
