package fusion

import (
	"github.com/kailas-cloud/rankfuse/internal/domain/search/query"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/stats"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/weights"
)

// BalancerConfig controls adaptive ensemble balancing.
//
// QueryShift must stay strictly greater than StatsShift: the query-type
// signal decides the direction of the final imbalance, and the
// distribution signal only nudges within it.
type BalancerConfig struct {
	Enabled    bool
	BaseVector float64
	BaseBM25   float64
	QueryShift float64
	StatsShift float64
}

// DefaultBalancerConfig returns balanced base weights with the stock
// shift magnitudes.
func DefaultBalancerConfig() BalancerConfig {
	return BalancerConfig{
		Enabled:    true,
		BaseVector: 0.5,
		BaseBM25:   0.5,
		QueryShift: 0.1,
		StatsShift: 0.05,
	}
}

// AdaptiveWeights derives the fusion weight pair for one query.
//
// Starting from the configured base, the query classification applies a
// directional shift (keyword queries toward BM25, semantic toward
// vector), then the score distributions apply a smaller confidence
// shift: a side with both a higher mean and a lower variance is more
// confident and more consistent, and earns a nudge. Both weights are
// clamped to [0.3, 0.7] before normalizing the pair to sum to 1.0.
// Total over empty result sets and empty queries.
func AdaptiveWeights(vec, bm25 []result.Result, q string, cfg BalancerConfig) weights.Weights {
	w := weights.New(cfg.BaseVector, cfg.BaseBM25)
	if cfg.BaseVector <= 0 || cfg.BaseBM25 <= 0 {
		w = weights.Default()
	}

	switch query.Classify(q) {
	case query.Keyword:
		w = w.Shift(-cfg.QueryShift)
	case query.Semantic:
		w = w.Shift(cfg.QueryShift)
	case query.Mixed:
		// no directional signal
	}

	vs := stats.Analyze(vec)
	bs := stats.Analyze(bm25)
	switch {
	case vs.Mean > bs.Mean && vs.Variance < bs.Variance:
		w = w.Shift(cfg.StatsShift)
	case bs.Mean > vs.Mean && bs.Variance < vs.Variance:
		w = w.Shift(-cfg.StatsShift)
	}

	return w.Clamp().Normalize()
}

// CapResults returns at most max results, preserving input order.
// Zero or negative max, like empty input, yields nil. Results are
// shared, never copied or mutated.
func CapResults(results []result.Result, max int) []result.Result {
	if max <= 0 || len(results) == 0 {
		return nil
	}
	if len(results) <= max {
		return results
	}
	return results[:max]
}
