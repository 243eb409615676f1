// Package chunk persists conversation chunks as JSON documents with a
// per-tenant sorted-set timeline for recency queries.
package chunk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alex-wang101/Quiry/internal/db"
	"github.com/alex-wang101/Quiry/internal/domain"
	"github.com/alex-wang101/Quiry/internal/logger"
)

// store is the consumer interface for chunk persistence.
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string, path string) ([][]byte, error)
	DelMulti(ctx context.Context, keys []string) (int64, error)
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZMembers(ctx context.Context, key string) ([]string, error)
	ZRevRange(ctx context.Context, key string, limit int) ([]string, error)
	ZRem(ctx context.Context, key string, members []string) (int64, error)
	ZCard(ctx context.Context, key string) (int64, error)
}

// Repo implements chunk persistence over the db facade.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a chunk repository.
func New(s store, keyPrefix string) *Repo {
	if keyPrefix == "" {
		keyPrefix = "quiry:"
	}
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Insert persists a chunk, assigns its tenant-scoped id, and records it on
// the tenant timeline. Returns the assigned id.
func (r *Repo) Insert(ctx context.Context, chunk *domain.ConversationChunk) (string, error) {
	id := uuid.NewString()
	doc := docFromChunk(chunk)

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal chunk: %w", err)
	}

	key := r.chunkKey(chunk.Tenant(), id)
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return "", fmt.Errorf("json.set %s: %w: %w", key, domain.ErrStorageUnavailable, err)
	}

	tlKey := r.timelineKey(chunk.Tenant())
	if err := r.store.ZAdd(ctx, tlKey, float64(doc.Timestamp), id); err != nil {
		return "", fmt.Errorf("zadd %s: %w: %w", tlKey, domain.ErrStorageUnavailable, err)
	}

	return id, nil
}

// FindAll returns every persisted chunk for a tenant, ascending by
// timestamp. Malformed documents are skipped with a warning rather than
// failing the whole snapshot.
func (r *Repo) FindAll(ctx context.Context, tenant string) ([]domain.ConversationChunk, error) {
	ids, err := r.store.ZMembers(ctx, r.timelineKey(tenant))
	if err != nil {
		return nil, fmt.Errorf("zrange %s: %w: %w", tenant, domain.ErrStorageUnavailable, err)
	}
	return r.fetchByIDs(ctx, tenant, ids)
}

// FindRecent returns up to limit chunks sorted by timestamp descending.
func (r *Repo) FindRecent(ctx context.Context, tenant string, limit int) ([]domain.ConversationChunk, error) {
	ids, err := r.store.ZRevRange(ctx, r.timelineKey(tenant), limit)
	if err != nil {
		return nil, fmt.Errorf("zrange rev %s: %w: %w", tenant, domain.ErrStorageUnavailable, err)
	}
	return r.fetchByIDs(ctx, tenant, ids)
}

// DeleteByIDs removes chunks and their timeline entries, returning the
// number of chunks actually deleted.
func (r *Repo) DeleteByIDs(ctx context.Context, tenant string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.chunkKey(tenant, id)
	}

	deleted, err := r.store.DelMulti(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("del chunks %s: %w: %w", tenant, domain.ErrStorageUnavailable, err)
	}
	if _, err := r.store.ZRem(ctx, r.timelineKey(tenant), ids); err != nil {
		return 0, fmt.Errorf("zrem %s: %w: %w", tenant, domain.ErrStorageUnavailable, err)
	}

	return int(deleted), nil
}

// Count returns the number of persisted chunks for a tenant.
func (r *Repo) Count(ctx context.Context, tenant string) (int, error) {
	n, err := r.store.ZCard(ctx, r.timelineKey(tenant))
	if err != nil {
		return 0, fmt.Errorf("zcard %s: %w: %w", tenant, domain.ErrStorageUnavailable, err)
	}
	return int(n), nil
}

func (r *Repo) fetchByIDs(ctx context.Context, tenant string, ids []string) ([]domain.ConversationChunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.chunkKey(tenant, id)
	}

	raws, err := r.store.JSONGetMulti(ctx, keys, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("json.get chunks %s: %w: %w", tenant, domain.ErrStorageUnavailable, err)
	}

	log := logger.FromContext(ctx)
	chunks := make([]domain.ConversationChunk, 0, len(ids))
	for i, raw := range raws {
		if raw == nil {
			// Timeline entry without a document: deleted out of band.
			continue
		}
		doc, err := parseDoc(raw)
		if err != nil {
			log.Warn("skipping malformed chunk document",
				zap.String("tenant", tenant), zap.String("chunk_id", ids[i]), zap.Error(err))
			continue
		}
		if err := doc.validate(); err != nil {
			log.Warn("quarantining incomplete chunk document",
				zap.String("tenant", tenant), zap.String("chunk_id", ids[i]), zap.Error(err))
			continue
		}
		chunks = append(chunks, doc.toChunk(ids[i]))
	}
	return chunks, nil
}

func (r *Repo) chunkKey(tenant, id string) string {
	return fmt.Sprintf("%s%s:chunk:%s", r.keyPrefix, tenant, id)
}

func (r *Repo) timelineKey(tenant string) string {
	return fmt.Sprintf("%s%s:chunks", r.keyPrefix, tenant)
}
