// Package result defines the candidate and fused search hit value types.
package result

// SourceType identifies the corpus a result was retrieved from.
type SourceType string

const (
	// SourceKnowledgeBase marks results from the knowledge base corpus.
	SourceKnowledgeBase SourceType = "knowledge_base"
	// SourceEmail marks results from the email corpus.
	SourceEmail SourceType = "email"
	// SourceWeb marks results from scraped web content.
	SourceWeb SourceType = "web"
)

// Result is a single scored candidate produced by an upstream index.
// BM25 backends report an unbounded relevance score, vector backends
// report a cosine similarity already bounded in [0,1]; a result carries
// whichever its producer set.
type Result struct {
	id            string
	content       string
	score         float64
	similarity    float64
	hasScore      bool
	hasSimilarity bool
	source        SourceType
	metadata      map[string]any
}

// New creates a result carrying a raw relevance score.
func New(id string, score float64, content string, source SourceType, metadata map[string]any) Result {
	return Result{
		id: id, score: score, hasScore: true,
		content: content, source: source, metadata: metadata,
	}
}

// NewSimilarity creates a result carrying a cosine similarity instead of a raw score.
func NewSimilarity(id string, similarity float64, content string, source SourceType, metadata map[string]any) Result {
	return Result{
		id: id, similarity: similarity, hasSimilarity: true,
		content: content, source: source, metadata: metadata,
	}
}

// ID returns the document identifier (unique within a namespace).
func (r *Result) ID() string { return r.id }

// Content returns the passage text.
func (r *Result) Content() string { return r.content }

// Score returns the raw relevance score (0 when unset).
func (r *Result) Score() float64 { return r.score }

// Similarity returns the cosine similarity (0 when unset).
func (r *Result) Similarity() float64 { return r.similarity }

// Source returns the corpus the result came from.
func (r *Result) Source() SourceType { return r.source }

// Metadata returns the opaque metadata map attached by the producer.
func (r *Result) Metadata() map[string]any { return r.metadata }

// EffectiveScore returns the score, falling back to similarity, then 0.
func (r *Result) EffectiveScore() float64 {
	if r.hasScore {
		return r.score
	}
	if r.hasSimilarity {
		return r.similarity
	}
	return 0
}

// WithScore returns a copy of the result with the raw score replaced.
func (r Result) WithScore(score float64) Result {
	r.score = score
	r.hasScore = true
	return r
}

// Method identifies the fusion strategy that produced a fused result.
type Method string

const (
	// MethodRRF marks results produced by Reciprocal Rank Fusion.
	MethodRRF Method = "rrf"
	// MethodWeighted marks results produced by weighted-score fusion.
	MethodWeighted Method = "weighted"
)

// Fused is a result after rank fusion. Ranks are 1-based positions in
// the originating lists; 0 means the result was absent from that list.
// At most one of the two ranks is 0.
type Fused struct {
	Result

	fusedScore float64
	vectorRank int
	bm25Rank   int
	method     Method
}

// NewFused creates a fused result from the first-seen candidate.
func NewFused(res Result, fusedScore float64, vectorRank, bm25Rank int, method Method) Fused {
	return Fused{
		Result:     res,
		fusedScore: fusedScore,
		vectorRank: vectorRank,
		bm25Rank:   bm25Rank,
		method:     method,
	}
}

// FusedScore returns the combined score the final ranking is sorted by.
func (f *Fused) FusedScore() float64 { return f.fusedScore }

// VectorRank returns the 1-based position in the vector list, 0 if absent.
func (f *Fused) VectorRank() int { return f.vectorRank }

// BM25Rank returns the 1-based position in the BM25 list, 0 if absent.
func (f *Fused) BM25Rank() int { return f.bm25Rank }

// FusionMethod returns the strategy that produced this result.
func (f *Fused) FusionMethod() Method { return f.method }
