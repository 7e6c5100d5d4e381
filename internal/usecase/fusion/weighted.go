package fusion

import (
	"sort"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/weights"
)

// FuseWeighted merges the candidate lists by weighted normalized scores:
// final(d) = norm_vec(d)*w.Vector() + norm_bm25(d)*w.BM25() over the
// union of ids, with a missing side contributing 0. Vector scores pass
// through untouched (cosine similarity is already bounded in [0,1]);
// BM25 scores go through z-score + sigmoid to tame their unbounded range.
func FuseWeighted(vec, bm25 []result.Result, w weights.Weights) []result.Fused {
	return FuseWeightedNorm(vec, bm25, w, NormPassthrough, NormZScore)
}

// FuseWeightedNorm is FuseWeighted with explicit per-side normalization
// methods, for callers that configure them.
func FuseWeightedNorm(vec, bm25 []result.Result, w weights.Weights, vecMethod, bm25Method NormMethod) []result.Fused {
	normVec := Normalize(vec, vecMethod)
	normBM25 := Normalize(bm25, bm25Method)

	type entry struct {
		res        result.Result
		score      float64
		vectorRank int
		bm25Rank   int
	}

	merged := make(map[string]*entry, len(normVec)+len(normBM25))
	order := make([]string, 0, len(normVec)+len(normBM25))

	for i, s := range normVec {
		merged[s.Result.ID()] = &entry{
			res:        s.Result,
			score:      s.Score * w.Vector(),
			vectorRank: i + 1,
		}
		order = append(order, s.Result.ID())
	}

	for i, s := range normBM25 {
		if e, ok := merged[s.Result.ID()]; ok {
			e.score += s.Score * w.BM25()
			e.bm25Rank = i + 1
			continue
		}
		merged[s.Result.ID()] = &entry{
			res:      s.Result,
			score:    s.Score * w.BM25(),
			bm25Rank: i + 1,
		}
		order = append(order, s.Result.ID())
	}

	fused := make([]result.Fused, 0, len(order))
	for _, id := range order {
		e := merged[id]
		fused = append(fused, result.NewFused(e.res, e.score, e.vectorRank, e.bm25Rank, result.MethodWeighted))
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].FusedScore() > fused[j].FusedScore()
	})

	return fused
}
