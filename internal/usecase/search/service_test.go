package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankfuse/internal/domain"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/weights"
	"github.com/kailas-cloud/rankfuse/internal/repository/resultcache"
	"github.com/kailas-cloud/rankfuse/internal/usecase/fusion"
)

type mockVectorSearcher struct {
	results []result.Result
	err     error
	calls   int
}

func (m *mockVectorSearcher) SearchKNN(_ context.Context, _ string, _ []float32, _ int) ([]result.Result, error) {
	m.calls++
	return m.results, m.err
}

type mockKeywordSearcher struct {
	results []result.Result
	err     error
	calls   int
}

func (m *mockKeywordSearcher) SearchBM25(_ context.Context, _, _ string, _ int) ([]result.Result, error) {
	m.calls++
	return m.results, m.err
}

type mockEmbedder struct {
	embedding []float32
	err       error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.embedding, PromptTokens: 3, TotalTokens: 3}, nil
}

func testConfig() Config {
	return Config{
		Method:       result.MethodRRF,
		RRFK:         60,
		Balancer:     fusion.DefaultBalancerConfig(),
		VectorNorm:   fusion.NormPassthrough,
		BM25Norm:     fusion.NormZScore,
		BM25:         fusion.DefaultBM25Params(),
		TopK:         20,
		DefaultLimit: 10,
		MaxLimit:     50,
	}
}

func newTestService(vec *mockVectorSearcher, kw *mockKeywordSearcher, cache *resultcache.Cache, cfg Config) *Service {
	return New(vec, kw, &mockEmbedder{embedding: []float32{0.1, 0.2, 0.3}}, cache, cfg, zap.NewNop())
}

func TestSearch_RRF(t *testing.T) {
	vec := &mockVectorSearcher{results: []result.Result{
		result.NewSimilarity("a", 0.9, "doc a", result.SourceKnowledgeBase, nil),
		result.NewSimilarity("b", 0.8, "doc b", result.SourceKnowledgeBase, nil),
	}}
	kw := &mockKeywordSearcher{results: []result.Result{
		result.New("b", 10.5, "doc b", result.SourceKnowledgeBase, nil),
		result.New("a", 8.2, "doc a", result.SourceKnowledgeBase, nil),
	}}

	svc := newTestService(vec, kw, nil, testConfig())
	fused, err := svc.Search(context.Background(), "docs", "redis configuration", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fused) != 2 {
		t.Fatalf("expected 2 results, got %d", len(fused))
	}
	// "b" is rank 2 + rank 1, "a" is rank 1 + rank 2; "b" wins on 1/62+1/61.
	if fused[0].ID() != "b" {
		t.Errorf("expected 'b' first, got %s", fused[0].ID())
	}
	for i := range fused {
		if fused[i].VectorRank() == 0 || fused[i].BM25Rank() == 0 {
			t.Errorf("result %s: expected both ranks set", fused[i].ID())
		}
	}
}

func TestSearch_WeightedOverride(t *testing.T) {
	vec := &mockVectorSearcher{results: []result.Result{
		result.NewSimilarity("a", 0.9, "doc a", result.SourceKnowledgeBase, nil),
	}}
	kw := &mockKeywordSearcher{}

	svc := newTestService(vec, kw, nil, testConfig())
	w := weights.New(0.7, 0.3)
	fused, err := svc.Search(context.Background(), "docs", "query terms", Options{
		Method:  result.MethodWeighted,
		Weights: &w,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fused[0].FusionMethod() != result.MethodWeighted {
		t.Errorf("expected weighted method, got %s", fused[0].FusionMethod())
	}
	// Passthrough similarity 0.9 at vector weight 0.7.
	if got := fused[0].FusedScore(); got < 0.62 || got > 0.64 {
		t.Errorf("expected score near 0.63, got %f", got)
	}
}

func TestSearch_LimitCapping(t *testing.T) {
	var many []result.Result
	for i := 0; i < 30; i++ {
		id := string(rune('a' + i%26))
		many = append(many, result.NewSimilarity(id+string(rune('0'+i/26)), 0.9-float64(i)*0.01, "doc", result.SourceKnowledgeBase, nil))
	}
	vec := &mockVectorSearcher{results: many}
	kw := &mockKeywordSearcher{}

	cfg := testConfig()
	cfg.DefaultLimit = 5
	cfg.MaxLimit = 10
	svc := newTestService(vec, kw, nil, cfg)

	t.Run("default limit", func(t *testing.T) {
		fused, err := svc.Search(context.Background(), "docs", "query", Options{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(fused) != 5 {
			t.Errorf("expected default limit 5, got %d", len(fused))
		}
	})

	t.Run("explicit limit clamped to max", func(t *testing.T) {
		fused, err := svc.Search(context.Background(), "docs", "query", Options{Limit: 100})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(fused) != 10 {
			t.Errorf("expected max limit 10, got %d", len(fused))
		}
	})
}

func TestSearch_EmbedError(t *testing.T) {
	svc := New(
		&mockVectorSearcher{}, &mockKeywordSearcher{},
		&mockEmbedder{err: domain.ErrEmbeddingProviderError},
		nil, testConfig(), zap.NewNop(),
	)

	_, err := svc.Search(context.Background(), "docs", "query", Options{})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected embedding provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "vectorize query") {
		t.Errorf("expected wrapped context, got %q", err.Error())
	}
}

func TestSearch_BackendErrors(t *testing.T) {
	t.Run("knn failure", func(t *testing.T) {
		vec := &mockVectorSearcher{err: domain.ErrNamespaceNotFound}
		svc := newTestService(vec, &mockKeywordSearcher{}, nil, testConfig())

		_, err := svc.Search(context.Background(), "missing", "query", Options{})
		if !errors.Is(err, domain.ErrNamespaceNotFound) {
			t.Fatalf("expected namespace error, got %v", err)
		}
	})

	t.Run("bm25 failure", func(t *testing.T) {
		kw := &mockKeywordSearcher{err: errors.New("index offline")}
		svc := newTestService(&mockVectorSearcher{}, kw, nil, testConfig())

		_, err := svc.Search(context.Background(), "docs", "query", Options{})
		if err == nil || !strings.Contains(err.Error(), "search bm25") {
			t.Fatalf("expected wrapped bm25 error, got %v", err)
		}
	})
}

func TestSearch_CacheHitSkipsBackends(t *testing.T) {
	vec := &mockVectorSearcher{results: []result.Result{
		result.NewSimilarity("a", 0.9, "doc a", result.SourceKnowledgeBase, nil),
	}}
	kw := &mockKeywordSearcher{}
	cache := resultcache.New(time.Minute, 10)

	svc := newTestService(vec, kw, cache, testConfig())

	first, err := svc.Search(context.Background(), "docs", "query", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Search(context.Background(), "docs", "query", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if vec.calls != 1 || kw.calls != 1 {
		t.Errorf("expected 1 backend call each, got knn=%d bm25=%d", vec.calls, kw.calls)
	}
	if len(first) != len(second) || first[0].ID() != second[0].ID() {
		t.Error("cached results differ from original")
	}
}

func TestSearch_OverridesBypassCache(t *testing.T) {
	vec := &mockVectorSearcher{results: []result.Result{
		result.NewSimilarity("a", 0.9, "doc a", result.SourceKnowledgeBase, nil),
	}}
	kw := &mockKeywordSearcher{}
	cache := resultcache.New(time.Minute, 10)

	svc := newTestService(vec, kw, cache, testConfig())

	opts := Options{Method: result.MethodWeighted}
	for i := 0; i < 2; i++ {
		if _, err := svc.Search(context.Background(), "docs", "query", opts); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if vec.calls != 2 {
		t.Errorf("expected overridden requests to bypass cache, got %d knn calls", vec.calls)
	}
	if cache.Len() != 0 {
		t.Errorf("expected nothing cached, got %d entries", cache.Len())
	}
}

func TestSearch_RescoresZeroScoreBM25(t *testing.T) {
	kw := &mockKeywordSearcher{results: []result.Result{
		result.New("a", 0, "redis index configuration", result.SourceKnowledgeBase, nil),
		result.New("b", 0, "weather report tomorrow", result.SourceKnowledgeBase, nil),
	}}

	cfg := testConfig()
	cfg.Method = result.MethodWeighted
	svc := newTestService(&mockVectorSearcher{}, kw, nil, cfg)

	fused, err := svc.Search(context.Background(), "docs", "redis configuration", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fused) != 2 {
		t.Fatalf("expected 2 results, got %d", len(fused))
	}
	// Local rescoring gives the matching doc the better rank.
	if fused[0].ID() != "a" {
		t.Errorf("expected rescored 'a' first, got %s", fused[0].ID())
	}
}

func TestSearch_NilCacheDisablesCaching(t *testing.T) {
	vec := &mockVectorSearcher{results: []result.Result{
		result.NewSimilarity("a", 0.9, "doc a", result.SourceKnowledgeBase, nil),
	}}
	kw := &mockKeywordSearcher{}
	svc := newTestService(vec, kw, nil, testConfig())

	for i := 0; i < 2; i++ {
		if _, err := svc.Search(context.Background(), "docs", "query", Options{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if vec.calls != 2 {
		t.Errorf("expected 2 knn calls without cache, got %d", vec.calls)
	}
}
