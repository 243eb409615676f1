// Package admin implements operator actions on a tenant's chunks: listing
// the most recent ones and purging them.
package admin

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alex-wang101/Quiry/internal/domain"
	"github.com/alex-wang101/Quiry/internal/logger"
)

// DefaultListLimit caps chunk listings when no limit is given.
const DefaultListLimit = 20

// Service handles administrative chunk removal.
type Service struct {
	repo Repository
}

// New creates a purge service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// PurgeRecent deletes up to count of the tenant's most recently persisted
// chunks and returns how many were actually removed. Purging more than the
// tenant holds removes everything and is not an error.
func (s *Service) PurgeRecent(ctx context.Context, tenant string, count int) (int, error) {
	if count <= 0 {
		return 0, nil
	}

	recent, err := s.repo.FindRecent(ctx, tenant, count)
	if err != nil {
		return 0, fmt.Errorf("list recent chunks: %w", err)
	}
	if len(recent) == 0 {
		return 0, nil
	}

	ids := make([]string, len(recent))
	for i := range recent {
		ids[i] = recent[i].ID()
	}

	deleted, err := s.repo.DeleteByIDs(ctx, tenant, ids)
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}

	logger.FromContext(ctx).Info("purged recent chunks",
		zap.String("tenant", tenant),
		zap.Int("requested", count),
		zap.Int("deleted", deleted))
	return deleted, nil
}

// ListRecent returns up to limit of the tenant's most recently persisted
// chunks, newest first.
func (s *Service) ListRecent(ctx context.Context, tenant string, limit int) ([]domain.ConversationChunk, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	chunks, err := s.repo.FindRecent(ctx, tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent chunks: %w", err)
	}
	return chunks, nil
}

// CountChunks returns the number of chunks a tenant currently holds.
func (s *Service) CountChunks(ctx context.Context, tenant string) (int, error) {
	n, err := s.repo.Count(ctx, tenant)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}
