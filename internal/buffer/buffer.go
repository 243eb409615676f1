// Package buffer accumulates raw messages per (tenant, channel) and emits
// complete message lists once a buffer reaches the configured chunk size.
package buffer

import (
	"sync"

	"github.com/alex-wang101/Quiry/internal/domain"
)

// DefaultChunkSize is the flush threshold used when none is configured.
const DefaultChunkSize = 10

// Buffers owns the per-key message buffers. It is the only long-lived
// mutable state in the ingestion path; all access goes through its methods.
// A single mutex serializes appends across keys, which keeps the
// observed-full / cleared transition atomic per key.
type Buffers struct {
	mu        sync.Mutex
	chunkSize int
	buffers   map[domain.BufferKey][]domain.RawMessage
}

// New creates an empty buffer collection flushing at chunkSize messages.
// Non-positive sizes fall back to DefaultChunkSize.
func New(chunkSize int) *Buffers {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Buffers{
		chunkSize: chunkSize,
		buffers:   make(map[domain.BufferKey][]domain.RawMessage),
	}
}

// Append adds a message to its key's buffer, creating the buffer if absent.
// When the buffer reaches the chunk size the whole buffer is returned in
// arrival order and cleared atomically; otherwise Append returns (nil, false).
func (b *Buffers) Append(msg domain.RawMessage) ([]domain.RawMessage, bool) {
	key := msg.Key()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.buffers[key] = append(b.buffers[key], msg)
	if len(b.buffers[key]) < b.chunkSize {
		return nil, false
	}

	flushed := b.buffers[key]
	delete(b.buffers, key)
	return flushed, true
}

// Restore re-queues messages at the front of their buffer after a failed
// flush. It never triggers a flush itself; the next Append retries the
// whole set, so nothing is lost and nothing is embedded twice.
func (b *Buffers) Restore(key domain.BufferKey, messages []domain.RawMessage) {
	if len(messages) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.buffers[key] = append(append([]domain.RawMessage{}, messages...), b.buffers[key]...)
}

// Len reports the current buffer length for a key.
func (b *Buffers) Len(key domain.BufferKey) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffers[key])
}
