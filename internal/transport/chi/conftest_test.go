package chi

import (
	"context"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alex-wang101/Quiry/internal/buffer"
	"github.com/alex-wang101/Quiry/internal/domain"
	adminuc "github.com/alex-wang101/Quiry/internal/usecase/admin"
	healthuc "github.com/alex-wang101/Quiry/internal/usecase/health"
	ingestuc "github.com/alex-wang101/Quiry/internal/usecase/ingest"
	queryuc "github.com/alex-wang101/Quiry/internal/usecase/query"
)

type fakeRepo struct {
	chunks   []domain.ConversationChunk
	inserted []domain.ConversationChunk
	findErr  error
}

func (f *fakeRepo) Insert(ctx context.Context, chunk *domain.ConversationChunk) (string, error) {
	f.inserted = append(f.inserted, *chunk)
	return "chunk-1", nil
}

func (f *fakeRepo) FindAll(ctx context.Context, tenant string) ([]domain.ConversationChunk, error) {
	return f.chunks, f.findErr
}

func (f *fakeRepo) FindRecent(ctx context.Context, tenant string, limit int) ([]domain.ConversationChunk, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if limit > len(f.chunks) {
		limit = len(f.chunks)
	}
	return f.chunks[:limit], nil
}

func (f *fakeRepo) DeleteByIDs(ctx context.Context, tenant string, ids []string) (int, error) {
	return len(ids), nil
}

func (f *fakeRepo) Count(ctx context.Context, tenant string) (int, error) {
	return len(f.chunks), nil
}

func (f *fakeRepo) Ping(ctx context.Context) error { return nil }

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

type fakeAnswerer struct {
	answer string
	err    error
}

func (f *fakeAnswerer) Generate(ctx context.Context, prompt string) (string, error) {
	return f.answer, f.err
}

type serverDeps struct {
	repo     *fakeRepo
	embedder *fakeEmbedder
	answerer *fakeAnswerer
}

func newTestServer(deps serverDeps, adminKeys []string) *httptest.Server {
	if deps.repo == nil {
		deps.repo = &fakeRepo{}
	}
	if deps.embedder == nil {
		deps.embedder = &fakeEmbedder{}
	}
	if deps.answerer == nil {
		deps.answerer = &fakeAnswerer{answer: "generated answer"}
	}

	logger := zap.NewNop()
	srv := NewServer(
		ingestuc.New(buffer.New(buffer.DefaultChunkSize), deps.repo, deps.embedder, ingestuc.Options{Dimensions: 2}),
		queryuc.New(deps.repo, deps.embedder, deps.answerer, queryuc.Options{TopK: 5, Rerank: true}),
		adminuc.New(deps.repo),
		healthuc.New(deps.repo, nil),
		logger,
	)

	r := chi.NewRouter()
	srv.Routes(r, adminKeys)
	return httptest.NewServer(r)
}
