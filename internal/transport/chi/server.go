// Package chi exposes the HTTP API: message ingestion, question answering,
// chunk listing, admin purge, health, and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alex-wang101/Quiry/internal/domain"
	"github.com/alex-wang101/Quiry/internal/metrics"
	adminuc "github.com/alex-wang101/Quiry/internal/usecase/admin"
	healthuc "github.com/alex-wang101/Quiry/internal/usecase/health"
	ingestuc "github.com/alex-wang101/Quiry/internal/usecase/ingest"
	queryuc "github.com/alex-wang101/Quiry/internal/usecase/query"
)

// AnswerUnavailableReply is returned with a 200 when the answer provider
// fails; retrieval worked and the client should simply retry.
const AnswerUnavailableReply = "Sorry, I couldn't generate a response right now. Please try again later."

const maxListLimit = 100

// Server hosts the HTTP handlers.
type Server struct {
	ingest *ingestuc.Service
	query  *queryuc.Service
	admin  *adminuc.Service
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest *ingestuc.Service,
	query *queryuc.Service,
	admin *adminuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{ingest: ingest, query: query, admin: admin, health: health, logger: logger}
}

// Routes mounts the API routes. adminKeys guards the purge endpoint; an
// empty list disables it entirely.
func (s *Server) Routes(r chi.Router, adminKeys []string) {
	r.Route("/v1/tenants/{tenant}", func(r chi.Router) {
		r.Post("/messages", s.handleIngestMessage)
		r.Post("/ask", s.handleAsk)
		r.Get("/chunks", s.handleListChunks)
		r.With(AdminAuthMiddleware(adminKeys)).Delete("/chunks", s.handlePurgeChunks)
	})
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

type ingestRequest struct {
	Channel   string    `json:"channel"`
	Author    string    `json:"author"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// handleIngestMessage handles POST /v1/tenants/{tenant}/messages. Accepted
// messages respond 204 even when they are dropped (empty content,
// duplicates) or when a flush fails downstream; flush failures are requeued
// and retried on a later message.
func (s *Server) handleIngestMessage(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	msg, err := domain.NewRawMessage(
		tenant, req.Channel, req.Author, req.AuthorID,
		req.Content, req.Category, req.Timestamp,
	)
	switch {
	case errors.Is(err, domain.ErrEmptyContent):
		metrics.MessagesTotal.WithLabelValues("empty").Inc()
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ingest.Ingest(r.Context(), msg); err != nil {
		// The message itself was accepted; the failed flush set is back in
		// the buffer.
		s.logger.Warn("flush failed during ingestion",
			zap.String("tenant", tenant), zap.Error(err))
	}

	w.WriteHeader(http.StatusNoContent)
}

type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// handleAsk handles POST /v1/tenants/{tenant}/ask.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := s.query.Ask(r.Context(), tenant, req.Question, req.TopK)
	if err != nil {
		if errors.Is(err, domain.ErrAnswerProviderError) {
			s.logger.Warn("answer provider failed", zap.String("tenant", tenant), zap.Error(err))
			writeJSON(w, http.StatusOK, askResponse{Answer: AnswerUnavailableReply})
			return
		}
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

type chunkItem struct {
	ID           string    `json:"id"`
	Channel      string    `json:"channel"`
	Category     string    `json:"category"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
	MessageCount int       `json:"message_count"`
}

type listChunksResponse struct {
	Items []chunkItem `json:"items"`
	Total int         `json:"total"`
}

// handleListChunks handles GET /v1/tenants/{tenant}/chunks.
func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	chunks, err := s.admin.ListRecent(r.Context(), tenant, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	total, err := s.admin.CountChunks(r.Context(), tenant)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]chunkItem, len(chunks))
	for i := range chunks {
		items[i] = chunkItem{
			ID:           chunks[i].ID(),
			Channel:      chunks[i].Channel(),
			Category:     chunks[i].Category(),
			Text:         chunks[i].Text(),
			Timestamp:    chunks[i].Timestamp(),
			MessageCount: chunks[i].MessageCount(),
		}
	}

	writeJSON(w, http.StatusOK, listChunksResponse{Items: items, Total: total})
}

type purgeResponse struct {
	Deleted int `json:"deleted"`
}

// handlePurgeChunks handles DELETE /v1/tenants/{tenant}/chunks.
func (s *Server) handlePurgeChunks(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")

	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil || count <= 0 {
		writeError(w, http.StatusBadRequest, "count must be a positive integer")
		return
	}

	deleted, err := s.admin.PurgeRecent(r.Context(), tenant, count)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, purgeResponse{Deleted: deleted})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrStorageUnavailable):
		s.logger.Error("storage unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, domain.ErrStorageUnavailable.Error())
	case errors.Is(err, domain.ErrVectorDimMismatch):
		s.logger.Error("vector dimension mismatch", zap.Error(err))
		writeError(w, http.StatusInternalServerError, domain.ErrVectorDimMismatch.Error())
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		s.logger.Warn("embedding provider failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, domain.ErrEmbeddingProviderError.Error())
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
