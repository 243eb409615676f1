package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/alex-wang101/Quiry/internal/buffer"
	"github.com/alex-wang101/Quiry/internal/domain"
)

type mockRepo struct {
	insertFunc func(ctx context.Context, chunk *domain.ConversationChunk) (string, error)
}

func (m *mockRepo) Insert(ctx context.Context, chunk *domain.ConversationChunk) (string, error) {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, chunk)
	}
	return "chunk-1", nil
}

type mockEmbedder struct {
	embedFunc func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls     int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.embedFunc != nil {
		return m.embedFunc(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 7}, nil
}

func newTestService(repo *mockRepo, embed *mockEmbedder, opts Options) (*Service, *buffer.Buffers) {
	buf := buffer.New(buffer.DefaultChunkSize)
	return New(buf, repo, embed, opts), buf
}

func msg(t *testing.T, tenant, channel, author string, authorID int64, content string, ts time.Time) domain.RawMessage {
	t.Helper()
	m, err := domain.NewRawMessage(tenant, channel, author, authorID, content, "", ts)
	if err != nil {
		t.Fatalf("NewRawMessage: %v", err)
	}
	return m
}
