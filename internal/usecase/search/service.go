// Package search orchestrates hybrid retrieval: it fans out to the
// dense and sparse candidate producers and fuses their results.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/weights"
	"github.com/kailas-cloud/rankfuse/internal/metrics"
	"github.com/kailas-cloud/rankfuse/internal/repository/resultcache"
	"github.com/kailas-cloud/rankfuse/internal/usecase/fusion"
)

// Config holds fusion and weighting settings for the service.
type Config struct {
	Method       result.Method
	RRFK         int
	Balancer     fusion.BalancerConfig
	VectorNorm   fusion.NormMethod
	BM25Norm     fusion.NormMethod
	BM25         fusion.BM25Params
	TopK         int
	DefaultLimit int
	MaxLimit     int
}

// Options carries per-request overrides. Zero values defer to config.
type Options struct {
	Method  result.Method
	Weights *weights.Weights
	Limit   int
}

// Service handles hybrid search requests. Stateless apart from the
// optional result cache; safe for concurrent use.
type Service struct {
	vec    VectorSearcher
	kw     KeywordSearcher
	embed  Embedder
	cache  *resultcache.Cache
	cfg    Config
	logger *zap.Logger
}

// New creates a search service. cache may be nil to disable caching.
func New(
	vec VectorSearcher, kw KeywordSearcher, embed Embedder,
	cache *resultcache.Cache, cfg Config, logger *zap.Logger,
) *Service {
	return &Service{vec: vec, kw: kw, embed: embed, cache: cache, cfg: cfg, logger: logger}
}

// Search embeds the query, fetches both candidate sets concurrently,
// and fuses them into one ranked list of at most limit results.
func (s *Service) Search(
	ctx context.Context, namespace, query string, opts Options,
) ([]result.Fused, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(s.method(opts)), "error").Inc()
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	// Overridden requests bypass the cache: the fingerprint only covers
	// the request shape, not per-request fusion settings.
	cacheable := s.cache != nil && opts.Method == "" && opts.Weights == nil

	var key string
	if cacheable {
		key = resultcache.Fingerprint(namespace, limit, emb.Embedding)
		if cached, ok := s.cache.Get(key); ok {
			metrics.ResultCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.ResultCacheTotal.WithLabelValues("miss").Inc()
	}

	vecResults, bm25Results, err := s.fetchCandidates(ctx, namespace, query, emb.Embedding)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(string(s.method(opts)), "error").Inc()
		return nil, err
	}

	fused := s.fuse(vecResults, bm25Results, query, opts)

	if len(fused) > limit {
		fused = fused[:limit]
	}

	if cacheable {
		s.cache.Set(key, fused)
	}

	metrics.SearchRequestsTotal.WithLabelValues(string(s.method(opts)), "success").Inc()
	return fused, nil
}

// fetchCandidates issues both index queries concurrently: the two
// candidate sets are independent and each call is network-bound.
func (s *Service) fetchCandidates(
	ctx context.Context, namespace, query string, vector []float32,
) (vec, bm25 []result.Result, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		vec, err = s.vec.SearchKNN(gctx, namespace, vector, s.cfg.TopK)
		if err != nil {
			return fmt.Errorf("search knn: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		bm25, err = s.kw.SearchBM25(gctx, namespace, query, s.cfg.TopK)
		if err != nil {
			return fmt.Errorf("search bm25: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Some keyword backends return hits without usable scores; rescore
	// locally using within-set statistics so weighted fusion has a signal.
	if allZeroScores(bm25) {
		bm25 = fusion.RescoreBM25(bm25, query, s.cfg.BM25)
	}

	return vec, bm25, nil
}

// fuse runs the selected fusion strategy over the candidate sets.
func (s *Service) fuse(
	vec, bm25 []result.Result, query string, opts Options,
) []result.Fused {
	method := s.method(opts)

	start := time.Now()
	defer func() {
		metrics.FusionDuration.WithLabelValues(string(method)).Observe(time.Since(start).Seconds())
	}()

	if method == result.MethodRRF {
		return fusion.FuseRRF(vec, bm25, s.cfg.RRFK)
	}

	w := s.weightsFor(vec, bm25, query, opts)
	s.logger.Debug("weighted fusion",
		zap.Float64("vector_weight", w.Vector()),
		zap.Float64("bm25_weight", w.BM25()),
	)
	return fusion.FuseWeightedNorm(vec, bm25, w, s.cfg.VectorNorm, s.cfg.BM25Norm)
}

func (s *Service) method(opts Options) result.Method {
	if opts.Method != "" {
		return opts.Method
	}
	return s.cfg.Method
}

func (s *Service) weightsFor(
	vec, bm25 []result.Result, query string, opts Options,
) weights.Weights {
	if opts.Weights != nil {
		return opts.Weights.Clamp().Normalize()
	}
	if s.cfg.Balancer.Enabled {
		return fusion.AdaptiveWeights(vec, bm25, query, s.cfg.Balancer)
	}
	return weights.New(s.cfg.Balancer.BaseVector, s.cfg.Balancer.BaseBM25).Clamp().Normalize()
}

func allZeroScores(results []result.Result) bool {
	if len(results) == 0 {
		return false
	}
	for i := range results {
		if results[i].EffectiveScore() != 0 {
			return false
		}
	}
	return true
}
