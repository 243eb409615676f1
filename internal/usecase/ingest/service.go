// Package ingest implements the message ingestion pipeline: duplicate
// suppression, per-channel buffering, and chunk flushing (merge, embed,
// persist) once a buffer fills up.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alex-wang101/Quiry/internal/domain"
	"github.com/alex-wang101/Quiry/internal/logger"
	"github.com/alex-wang101/Quiry/internal/metrics"
)

// Options tunes the ingestion pipeline.
type Options struct {
	// Dimensions is the expected embedding width. Zero skips the check.
	Dimensions int
	// DedupWindow suppresses identical messages from the same author
	// arriving within the window. Zero disables suppression.
	DedupWindow time.Duration
}

type dedupKey struct {
	tenant   string
	authorID int64
}

type dedupEntry struct {
	content string
	seenAt  time.Time
}

// Service handles message ingestion.
type Service struct {
	buffer Buffer
	repo   Repository
	embed  Embedder
	opts   Options

	mu       sync.Mutex
	lastSeen map[dedupKey]dedupEntry
}

// New creates an ingestion service.
func New(buffer Buffer, repo Repository, embed Embedder, opts Options) *Service {
	return &Service{
		buffer:   buffer,
		repo:     repo,
		embed:    embed,
		opts:     opts,
		lastSeen: make(map[dedupKey]dedupEntry),
	}
}

// Ingest buffers a message and, when its buffer fills, flushes the buffer
// into a persisted chunk. Duplicates of the author's previous message inside
// the dedup window are dropped silently. On a flush failure the messages are
// restored to the buffer so the next arrival retries the whole set.
func (s *Service) Ingest(ctx context.Context, msg domain.RawMessage) error {
	if s.isDuplicate(msg) {
		metrics.MessagesTotal.WithLabelValues("duplicate").Inc()
		logger.FromContext(ctx).Debug("dropping duplicate message",
			zap.String("tenant", msg.Tenant()), zap.Int64("author_id", msg.AuthorID()))
		return nil
	}

	flushed, full := s.buffer.Append(msg)
	if !full {
		metrics.MessagesTotal.WithLabelValues("buffered").Inc()
		return nil
	}

	metrics.MessagesTotal.WithLabelValues("flushed").Add(float64(len(flushed)))
	return s.flush(ctx, msg.Key(), flushed)
}

// flush merges a full buffer into one chunk, embeds it once, and persists
// it. Any failure requeues the messages; they are flushed again (and
// re-embedded) on the next append to the same key.
func (s *Service) flush(ctx context.Context, key domain.BufferKey, messages []domain.RawMessage) error {
	log := logger.FromContext(ctx)

	text := domain.MergeMessages(messages)
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		s.requeue(ctx, key, messages)
		return fmt.Errorf("embed chunk: %w", err)
	}

	if s.opts.Dimensions > 0 && len(res.Embedding) != s.opts.Dimensions {
		s.requeue(ctx, key, messages)
		return fmt.Errorf("embedding has dimension %d, expected %d: %w",
			len(res.Embedding), s.opts.Dimensions, domain.ErrVectorDimMismatch)
	}

	chunk := domain.NewConversationChunk(key, messages, res.Embedding)
	id, err := s.repo.Insert(ctx, &chunk)
	if err != nil {
		s.requeue(ctx, key, messages)
		return fmt.Errorf("persist chunk: %w", err)
	}

	metrics.ChunksPersistedTotal.Inc()
	log.Info("chunk persisted",
		zap.String("tenant", key.Tenant),
		zap.String("channel", key.Channel),
		zap.String("chunk_id", id),
		zap.Int("messages", len(messages)),
		zap.Int("tokens", res.TotalTokens))
	return nil
}

func (s *Service) requeue(ctx context.Context, key domain.BufferKey, messages []domain.RawMessage) {
	s.buffer.Restore(key, messages)
	metrics.MessagesTotal.WithLabelValues("requeued").Add(float64(len(messages)))
	logger.FromContext(ctx).Warn("chunk flush failed, messages requeued",
		zap.String("tenant", key.Tenant),
		zap.String("channel", key.Channel),
		zap.Int("messages", len(messages)))
}

// isDuplicate reports whether the message repeats the author's previous
// message within the dedup window, and records it as the new previous
// message either way.
func (s *Service) isDuplicate(msg domain.RawMessage) bool {
	if s.opts.DedupWindow <= 0 {
		return false
	}

	key := dedupKey{tenant: msg.Tenant(), authorID: msg.AuthorID()}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.lastSeen[key]
	s.lastSeen[key] = dedupEntry{content: msg.Content(), seenAt: msg.Timestamp()}

	return ok &&
		prev.content == msg.Content() &&
		msg.Timestamp().Sub(prev.seenAt) < s.opts.DedupWindow &&
		msg.Timestamp().Sub(prev.seenAt) >= 0
}
