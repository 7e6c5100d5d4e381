// Package stats computes descriptive statistics over result-set scores.
package stats

import "github.com/kailas-cloud/rankfuse/internal/domain/search/result"

// Stats holds the score distribution of one candidate set.
// All fields are 0 for an empty set; never NaN.
type Stats struct {
	Mean     float64
	Variance float64
	Min      float64
	Max      float64
}

// Analyze computes mean, population variance, min, and max over the
// effective scores of a result set. Empty input yields zeroed stats.
func Analyze(results []result.Result) Stats {
	if len(results) == 0 {
		return Stats{}
	}

	scores := make([]float64, len(results))
	for i := range results {
		scores[i] = results[i].EffectiveScore()
	}

	var sum float64
	minScore, maxScore := scores[0], scores[0]
	for _, s := range scores {
		sum += s
		if s < minScore {
			minScore = s
		}
		if s > maxScore {
			maxScore = s
		}
	}
	mean := sum / float64(len(scores))

	var variance float64
	for _, s := range scores {
		d := s - mean
		variance += d * d
	}
	variance /= float64(len(scores))

	return Stats{Mean: mean, Variance: variance, Min: minScore, Max: maxScore}
}
