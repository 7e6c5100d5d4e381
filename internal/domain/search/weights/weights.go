// Package weights defines the pair of fusion weights for the two retrieval signals.
package weights

// Bounds each individual weight is clamped to before normalization.
// Neither signal is ever silenced nor allowed to dominate completely.
const (
	MinWeight = 0.3
	MaxWeight = 0.7
)

// Weights is the vector/BM25 weight pair used by weighted fusion.
// After Normalize the two weights sum to exactly 1.0.
type Weights struct {
	vector float64
	bm25   float64
}

// New creates a weight pair.
func New(vector, bm25 float64) Weights {
	return Weights{vector: vector, bm25: bm25}
}

// Default returns the balanced 0.5/0.5 pair.
func Default() Weights {
	return Weights{vector: 0.5, bm25: 0.5}
}

// Vector returns the dense-signal weight.
func (w Weights) Vector() float64 { return w.vector }

// BM25 returns the sparse-signal weight.
func (w Weights) BM25() float64 { return w.bm25 }

// Shift moves weight from one signal to the other. A positive delta
// favors the vector side, a negative delta the BM25 side.
func (w Weights) Shift(delta float64) Weights {
	return Weights{vector: w.vector + delta, bm25: w.bm25 - delta}
}

// Clamp bounds both weights to [MinWeight, MaxWeight].
func (w Weights) Clamp() Weights {
	return Weights{vector: clamp(w.vector), bm25: clamp(w.bm25)}
}

// Normalize rescales the pair to sum to 1.0. A degenerate zero sum
// falls back to the balanced default.
func (w Weights) Normalize() Weights {
	sum := w.vector + w.bm25
	if sum <= 0 {
		return Default()
	}
	return Weights{vector: w.vector / sum, bm25: w.bm25 / sum}
}

func clamp(v float64) float64 {
	if v < MinWeight {
		return MinWeight
	}
	if v > MaxWeight {
		return MaxWeight
	}
	return v
}
