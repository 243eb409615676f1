package query

import (
	"context"

	"github.com/alex-wang101/Quiry/internal/domain"
)

// Repository reads persisted chunks.
type Repository interface {
	FindAll(ctx context.Context, tenant string) ([]domain.ConversationChunk, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Answerer generates the final natural-language answer.
type Answerer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
