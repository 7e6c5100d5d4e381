// Package chi exposes the search and chunking services over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankfuse/internal/domain"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
	"github.com/kailas-cloud/rankfuse/internal/domain/search/weights"
	"github.com/kailas-cloud/rankfuse/internal/metrics"
	"github.com/kailas-cloud/rankfuse/internal/usecase/chunking"
	"github.com/kailas-cloud/rankfuse/internal/usecase/fusion"
	healthuc "github.com/kailas-cloud/rankfuse/internal/usecase/health"
	searchuc "github.com/kailas-cloud/rankfuse/internal/usecase/search"
)

// Server is the HTTP API server.
type Server struct {
	search   *searchuc.Service
	chunking chunking.Options
	health   *healthuc.Service
	logger   *zap.Logger
}

// NewServer creates an HTTP API server. chunkDefaults seeds per-request
// chunker options.
func NewServer(
	search *searchuc.Service,
	chunkDefaults chunking.Options,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{search: search, chunking: chunkDefaults, health: health, logger: logger}
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/namespaces/{namespace}/search", s.handleSearch)
		r.Post("/chunks", s.handleChunk)
	})

	return r
}

type searchRequest struct {
	Query        string   `json:"query"`
	Limit        int      `json:"limit,omitempty"`
	FusionMethod string   `json:"fusion_method,omitempty"`
	VectorWeight *float64 `json:"vector_weight,omitempty"`
	BM25Weight   *float64 `json:"bm25_weight,omitempty"`
}

type searchResultDTO struct {
	ID           string         `json:"id"`
	Content      string         `json:"content"`
	Score        float64        `json:"score"`
	VectorRank   *int           `json:"vector_rank"`
	BM25Rank     *int           `json:"bm25_rank"`
	FusionMethod string         `json:"fusion_method"`
	Source       string         `json:"source"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type searchResponse struct {
	Results []searchResultDTO `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	opts := searchuc.Options{Limit: req.Limit}

	if req.FusionMethod != "" {
		method, err := fusion.ParseMethod(req.FusionMethod)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Method = method
	}

	if req.VectorWeight != nil || req.BM25Weight != nil {
		if req.VectorWeight == nil || req.BM25Weight == nil {
			s.writeError(w, http.StatusBadRequest, "vector_weight and bm25_weight must be set together")
			return
		}
		w := weights.New(*req.VectorWeight, *req.BM25Weight)
		opts.Weights = &w
	}

	fused, err := s.search.Search(r.Context(), namespace, req.Query, opts)
	if err != nil {
		s.handleError(w, err, "search failed")
		return
	}

	resp := searchResponse{Results: make([]searchResultDTO, len(fused))}
	for i := range fused {
		resp.Results[i] = toSearchResultDTO(&fused[i])
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func toSearchResultDTO(f *result.Fused) searchResultDTO {
	dto := searchResultDTO{
		ID:           f.ID(),
		Content:      f.Content(),
		Score:        f.FusedScore(),
		FusionMethod: string(f.FusionMethod()),
		Source:       string(f.Source()),
		Metadata:     f.Metadata(),
	}
	if r := f.VectorRank(); r > 0 {
		dto.VectorRank = &r
	}
	if r := f.BM25Rank(); r > 0 {
		dto.BM25Rank = &r
	}
	return dto
}

type chunkRequest struct {
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	MaxTokens int            `json:"max_tokens,omitempty"`
	Overlap   int            `json:"overlap,omitempty"`
}

type chunkDTO struct {
	ID          string         `json:"id"`
	Text        string         `json:"text"`
	Index       int            `json:"index"`
	TotalChunks int            `json:"total_chunks"`
	Metadata    map[string]any `json:"metadata"`
}

type chunkResponse struct {
	Chunks []chunkDTO `json:"chunks"`
}

func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	var req chunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := s.chunking
	if req.MaxTokens != 0 {
		opts.MaxTokens = req.MaxTokens
	}
	if req.Overlap != 0 {
		opts.Overlap = req.Overlap
	}

	chunker, err := chunking.New(opts)
	if err != nil {
		s.handleError(w, err, "invalid chunk options")
		return
	}

	chunks := chunker.ChunkDocument(req.Content, req.Metadata)
	metrics.ChunksProducedTotal.Add(float64(len(chunks)))

	resp := chunkResponse{Chunks: make([]chunkDTO, len(chunks))}
	for i, ch := range chunks {
		resp.Chunks[i] = chunkDTO{
			ID:          ch.ID,
			Text:        ch.Text,
			Index:       ch.Index,
			TotalChunks: ch.TotalChunks,
			Metadata:    ch.Metadata,
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// handleError maps domain errors to HTTP status codes.
func (s *Server) handleError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrNamespaceNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidFusionMethod),
		errors.Is(err, domain.ErrInvalidChunkConfig):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEmbeddingProviderError),
		errors.Is(err, domain.ErrKeywordSearchNotSupported):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error(msg, zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, msg)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
