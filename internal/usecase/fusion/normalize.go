package fusion

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/rankfuse/internal/domain"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

// NormMethod selects the score rescaling strategy.
type NormMethod string

const (
	// NormMinMax rescales to [0,1] via (s - min) / (max - min).
	NormMinMax NormMethod = "min-max"
	// NormZScore standardizes then squashes through a logistic sigmoid.
	// Preferred for BM25: its unbounded, outlier-prone range would let a
	// single outlier flatten everything else under min-max.
	NormZScore NormMethod = "z-score"
	// NormNone passes raw scores through unchanged.
	NormNone NormMethod = "none"
	// NormPassthrough passes scores through for inputs already bounded
	// in [0,1], such as cosine similarities.
	NormPassthrough NormMethod = "passthrough"
)

// ParseNormMethod converts a config string to a NormMethod.
func ParseNormMethod(s string) (NormMethod, error) {
	switch NormMethod(s) {
	case NormMinMax, NormZScore, NormNone, NormPassthrough:
		return NormMethod(s), nil
	default:
		return "", fmt.Errorf("%w: unknown normalization %q", domain.ErrInvalidFusionMethod, s)
	}
}

// Scored pairs a result with its rescaled score and the method that
// produced it. The method is diagnostic only; ranking reads Score.
type Scored struct {
	Result result.Result
	Score  float64
	Method NormMethod
}

// Normalize rescales a result set's scores onto a comparable range.
// Empty input yields empty output. For the distribution-based methods a
// single result, or a set where every score is identical, normalizes to
// exactly 1.0: there is no distribution to compare against, and a
// uniform set should not be arbitrarily penalized.
func Normalize(results []result.Result, method NormMethod) []Scored {
	if len(results) == 0 {
		return nil
	}

	out := make([]Scored, len(results))
	for i := range results {
		out[i] = Scored{Result: results[i], Score: results[i].EffectiveScore(), Method: method}
	}

	switch method {
	case NormNone, NormPassthrough:
		return out
	case NormMinMax:
		normalizeMinMax(out)
	case NormZScore:
		normalizeZScore(out)
	}
	return out
}

func normalizeMinMax(out []Scored) {
	minScore, maxScore := out[0].Score, out[0].Score
	for _, s := range out[1:] {
		if s.Score < minScore {
			minScore = s.Score
		}
		if s.Score > maxScore {
			maxScore = s.Score
		}
	}

	if len(out) == 1 || maxScore == minScore {
		for i := range out {
			out[i].Score = 1.0
		}
		return
	}

	for i := range out {
		out[i].Score = (out[i].Score - minScore) / (maxScore - minScore)
	}
}

func normalizeZScore(out []Scored) {
	var sum float64
	for _, s := range out {
		sum += s.Score
	}
	mean := sum / float64(len(out))

	var variance float64
	for _, s := range out {
		d := s.Score - mean
		variance += d * d
	}
	variance /= float64(len(out))
	stddev := math.Sqrt(variance)

	if len(out) == 1 || stddev == 0 {
		for i := range out {
			out[i].Score = 1.0
		}
		return
	}

	for i := range out {
		z := (out[i].Score - mean) / stddev
		out[i].Score = 1 / (1 + math.Exp(-z))
	}
}
