package query

import (
	"context"
	"time"

	"github.com/alex-wang101/Quiry/internal/domain"
)

type mockRepo struct {
	findAllFunc func(ctx context.Context, tenant string) ([]domain.ConversationChunk, error)
}

func (m *mockRepo) FindAll(ctx context.Context, tenant string) ([]domain.ConversationChunk, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, tenant)
	}
	return nil, nil
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
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}

type mockAnswerer struct {
	generateFunc func(ctx context.Context, prompt string) (string, error)
	calls        int
}

func (m *mockAnswerer) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.generateFunc != nil {
		return m.generateFunc(ctx, prompt)
	}
	return "generated answer", nil
}

func storedChunk(id, text string, vector []float32) domain.ConversationChunk {
	return domain.ReconstructChunk(
		id, "guild-1", "general", domain.NoCategory, text,
		vector, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 10,
	)
}

func repoWith(chunks ...domain.ConversationChunk) *mockRepo {
	return &mockRepo{findAllFunc: func(ctx context.Context, tenant string) ([]domain.ConversationChunk, error) {
		return chunks, nil
	}}
}
