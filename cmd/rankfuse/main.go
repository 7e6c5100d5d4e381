package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankfuse/internal/config"
	logpkg "github.com/kailas-cloud/rankfuse/internal/logger"
	"github.com/kailas-cloud/rankfuse/internal/metrics"
	"github.com/kailas-cloud/rankfuse/internal/repository/index"
	"github.com/kailas-cloud/rankfuse/internal/repository/resultcache"
	chiTransport "github.com/kailas-cloud/rankfuse/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/rankfuse/internal/transport/openai"
	"github.com/kailas-cloud/rankfuse/internal/usecase/chunking"
	"github.com/kailas-cloud/rankfuse/internal/usecase/fusion"
	healthuc "github.com/kailas-cloud/rankfuse/internal/usecase/health"
	searchuc "github.com/kailas-cloud/rankfuse/internal/usecase/search"
	"github.com/kailas-cloud/rankfuse/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rankfuse API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("fusion_method", cfg.Search.FusionMethod),
	)

	store, err := index.NewStore(index.Config{
		Addrs:     cfg.Database.Addrs,
		Username:  cfg.Database.Username,
		Password:  cfg.Database.Password,
		KeyPrefix: cfg.Database.KeyPrefix,
	})
	if err != nil {
		logger.Fatal("Failed to create index store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Index backend not ready", zap.Error(err))
	}
	logger.Info("Connected to index backend")

	// Register metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	cache := resultcache.New(
		time.Duration(cfg.Cache.TTLSec)*time.Second,
		cfg.Cache.MaxEntries,
	)

	searchCfg, err := buildSearchConfig(cfg.Search)
	if err != nil {
		logger.Fatal("Invalid search config", zap.Error(err))
	}

	searchSvc := searchuc.New(store, store, embedder, cache, searchCfg, logger)
	healthSvc := healthuc.New(store, embedder)

	chunkDefaults := chunking.Options{
		MaxTokens:     cfg.Chunking.MaxTokens,
		Overlap:       cfg.Chunking.Overlap,
		CharsPerToken: cfg.Chunking.CharsPerToken,
	}
	if _, err := chunking.New(chunkDefaults); err != nil {
		logger.Fatal("Invalid chunking config", zap.Error(err))
	}

	server := chiTransport.NewServer(searchSvc, chunkDefaults, healthSvc, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// buildSearchConfig converts the yaml config section into the service config.
func buildSearchConfig(c config.SearchConfig) (searchuc.Config, error) {
	method, err := fusion.ParseMethod(c.FusionMethod)
	if err != nil {
		return searchuc.Config{}, err
	}
	vecNorm, err := fusion.ParseNormMethod(c.VectorNormalization)
	if err != nil {
		return searchuc.Config{}, err
	}
	bm25Norm, err := fusion.ParseNormMethod(c.BM25Normalization)
	if err != nil {
		return searchuc.Config{}, err
	}

	balancer := fusion.DefaultBalancerConfig()
	balancer.Enabled = !c.FixedWeights
	balancer.BaseVector = c.BaseVectorWeight
	balancer.BaseBM25 = c.BaseBM25Weight

	return searchuc.Config{
		Method:       method,
		RRFK:         c.RRFK,
		Balancer:     balancer,
		VectorNorm:   vecNorm,
		BM25Norm:     bm25Norm,
		BM25:         fusion.BM25Params{K1: c.BM25K1, B: c.BM25B},
		TopK:         c.TopK,
		DefaultLimit: c.DefaultLimit,
		MaxLimit:     c.MaxLimit,
	}, nil
}
