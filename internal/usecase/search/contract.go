package search

import (
	"context"

	"github.com/kailas-cloud/rankfuse/internal/domain"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

// VectorSearcher produces the dense candidate set for a query embedding.
type VectorSearcher interface {
	SearchKNN(ctx context.Context, namespace string, vector []float32, topK int) ([]result.Result, error)
}

// KeywordSearcher produces the sparse candidate set for a query string.
type KeywordSearcher interface {
	SearchBM25(ctx context.Context, namespace, query string, topK int) ([]result.Result, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
