package admin

import (
	"context"

	"github.com/alex-wang101/Quiry/internal/domain"
)

// Repository reads and deletes persisted chunks.
type Repository interface {
	FindRecent(ctx context.Context, tenant string, limit int) ([]domain.ConversationChunk, error)
	DeleteByIDs(ctx context.Context, tenant string, ids []string) (int, error)
	Count(ctx context.Context, tenant string) (int, error)
}
