package fusion

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/rankfuse/internal/domain"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

// CombineMethod selects how scores of a duplicated id are combined.
type CombineMethod string

const (
	// CombineMax keeps the highest score seen for an id (default).
	CombineMax CombineMethod = "max"
	// CombineAverage averages the scores seen for an id.
	CombineAverage CombineMethod = "average"
	// CombineSum adds the scores, clamped to [0,1]. The clamp is a
	// correctness guard: an id present in many sub-query sets must not
	// accumulate an unbounded score.
	CombineSum CombineMethod = "sum"
)

// ParseCombineMethod converts a config string to a CombineMethod.
// Empty input selects the default.
func ParseCombineMethod(s string) (CombineMethod, error) {
	switch CombineMethod(s) {
	case "":
		return CombineMax, nil
	case CombineMax, CombineAverage, CombineSum:
		return CombineMethod(s), nil
	default:
		return "", fmt.Errorf("%w: unknown combine method %q", domain.ErrInvalidFusionMethod, s)
	}
}

// MergeResults deduplicates candidate sets produced by repeated
// sub-queries. An id seen once passes through unchanged; duplicates are
// combined per method, keeping the first-seen content and metadata.
// Output is sorted descending by the combined score.
func MergeResults(sets [][]result.Result, method CombineMethod) []result.Result {
	type group struct {
		first result.Result
		sum   float64
		max   float64
		count int
	}

	groups := make(map[string]*group)
	var order []string

	for _, set := range sets {
		for _, r := range set {
			score := r.EffectiveScore()
			g, ok := groups[r.ID()]
			if !ok {
				groups[r.ID()] = &group{first: r, sum: score, max: score, count: 1}
				order = append(order, r.ID())
				continue
			}
			g.sum += score
			g.count++
			if score > g.max {
				g.max = score
			}
		}
	}

	merged := make([]result.Result, 0, len(order))
	for _, id := range order {
		g := groups[id]
		if g.count == 1 {
			merged = append(merged, g.first)
			continue
		}

		var combined float64
		switch method {
		case CombineAverage:
			combined = g.sum / float64(g.count)
		case CombineSum:
			combined = min(max(g.sum, 0), 1)
		default:
			combined = g.max
		}
		merged = append(merged, g.first.WithScore(combined))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].EffectiveScore() > merged[j].EffectiveScore()
	})

	return merged
}
