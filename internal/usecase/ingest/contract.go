package ingest

import (
	"context"

	"github.com/alex-wang101/Quiry/internal/domain"
)

// Buffer accumulates raw messages per (tenant, channel) and emits the full
// message list once a buffer reaches the chunk size.
type Buffer interface {
	Append(msg domain.RawMessage) ([]domain.RawMessage, bool)
	Restore(key domain.BufferKey, messages []domain.RawMessage)
}

// Repository persists conversation chunks.
type Repository interface {
	Insert(ctx context.Context, chunk *domain.ConversationChunk) (string, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
