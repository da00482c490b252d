package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankfuse/internal/domain"
	healthuc "github.com/kailas-cloud/rankfuse/internal/usecase/health"
	"github.com/kailas-cloud/rankfuse/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/rankfuse/internal/usecase/search"
)

const maxBatchSize = 100

// Server exposes the search and indexing API over HTTP.
type Server struct {
	search   *searchuc.Coordinator
	indexing *indexing.Hooks
	health   *healthuc.Service
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Coordinator,
	hooks *indexing.Hooks,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{search: search, indexing: hooks, health: health, logger: logger}
}

// Routes mounts all handlers on a router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1/indexes/{index}", func(r chi.Router) {
		r.Put("/", s.createIndex)
		r.Delete("/", s.deleteIndex)
		r.Post("/search", s.searchPost)
		r.Get("/search", s.searchGet)
		r.Route("/documents", func(r chi.Router) {
			r.Post("/batch", s.batchUpsert)
			r.Delete("/batch", s.batchDelete)
			r.Put("/{id}", s.upsertDocument)
			r.Delete("/{id}", s.deleteDocument)
		})
	})
	r.Get("/health", s.healthCheck)
	r.Get("/metrics", s.metricsHandler)
}

// searchPost handles POST /api/v1/indexes/{index}/search.
func (s *Server) searchPost(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	s.runSearch(w, r, req)
}

// searchGet handles GET /api/v1/indexes/{index}/search.
func (s *Server) searchGet(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	s.runSearch(w, r, params.toRequest())
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req searchRequest) {
	index := chi.URLParam(r, "index")

	q, err := buildQuery(index, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(&res))
}

// createIndex handles PUT /api/v1/indexes/{index}.
func (s *Server) createIndex(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	if err := s.indexing.CreateIndex(r.Context(), index); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// deleteIndex handles DELETE /api/v1/indexes/{index}.
func (s *Server) deleteIndex(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	if err := s.indexing.DeleteIndex(r.Context(), index); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// upsertDocument handles PUT /api/v1/indexes/{index}/documents/{id}.
func (s *Server) upsertDocument(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	id := chi.URLParam(r, "id")

	var req upsertDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if len(req.Fields) == 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "fields is required")
		return
	}

	if err := s.indexing.OnUpdate(r.Context(), index, id, req.Fields); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteDocument handles DELETE /api/v1/indexes/{index}/documents/{id}.
func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	id := chi.URLParam(r, "id")

	if err := s.indexing.OnDelete(r.Context(), index, id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// batchUpsert handles POST /api/v1/indexes/{index}/documents/batch.
func (s *Server) batchUpsert(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")

	var req batchUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 || len(req.Documents) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "validation_failed",
			fmt.Sprintf("documents count must be between 1 and %d", maxBatchSize))
		return
	}

	if err := s.indexing.OnCreateBatch(r.Context(), index, req.Documents); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// batchDelete handles DELETE /api/v1/indexes/{index}/documents/batch.
func (s *Server) batchDelete(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")

	var req batchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 || len(req.IDs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "validation_failed",
			fmt.Sprintf("ids count must be between 1 and %d", maxBatchSize))
		return
	}

	if err := s.indexing.OnDeleteBatch(r.Context(), index, req.IDs); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// metricsHandler handles GET /metrics.
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// statusMapping pairs a domain sentinel with its HTTP representation.
type statusMapping struct {
	sentinel error
	status   int
	code     string
}

var statusMappings = []statusMapping{
	{domain.ErrInvalidQuery, http.StatusBadRequest, "invalid_query"},
	{domain.ErrIndexNotFound, http.StatusNotFound, "index_not_found"},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"},
	{domain.ErrKeywordEngine, http.StatusBadGateway, "keyword_engine_error"},
	{domain.ErrVectorStore, http.StatusBadGateway, "vector_store_error"},
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	for _, m := range statusMappings {
		if errors.Is(err, m.sentinel) {
			return m.sentinel.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, m := range statusMappings {
		if errors.Is(err, m.sentinel) {
			writeError(w, m.status, m.code, msg)
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
