package domain

import (
	"fmt"
	"strings"
	"time"
)

// ConversationChunk is the unit of retrieval: a merged, embedded span of
// conversation, persisted once and never mutated afterwards.
type ConversationChunk struct {
	id           string
	tenant       string
	channel      string
	category     string
	text         string
	vector       []float32
	timestamp    time.Time
	messageCount int
}

// MergeMessages flattens buffered messages into the canonical chunk text:
// one line per message, arrival order, fixed line format.
func MergeMessages(messages []RawMessage) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = fmt.Sprintf("%s (id:%d) at %s said: %s",
			m.Author(), m.AuthorID(), m.Timestamp().Format(time.RFC3339), m.Content())
	}
	return strings.Join(lines, "\n")
}

// EarliestTimestamp returns the minimum timestamp over the messages.
// An empty list falls back to now; the flush threshold makes that
// unreachable in practice.
func EarliestTimestamp(messages []RawMessage) time.Time {
	if len(messages) == 0 {
		return time.Now().UTC()
	}
	earliest := messages[0].Timestamp()
	for _, m := range messages[1:] {
		if m.Timestamp().Before(earliest) {
			earliest = m.Timestamp()
		}
	}
	return earliest
}

// NewConversationChunk builds a chunk from a flushed message list and its
// embedding vector. The id is empty until the repository persists it.
func NewConversationChunk(key BufferKey, messages []RawMessage, vector []float32) ConversationChunk {
	category := NoCategory
	if len(messages) > 0 {
		category = messages[0].Category()
	}
	return ConversationChunk{
		tenant:       key.Tenant,
		channel:      key.Channel,
		category:     category,
		text:         MergeMessages(messages),
		vector:       vector,
		timestamp:    EarliestTimestamp(messages),
		messageCount: len(messages),
	}
}

// ReconstructChunk creates a chunk from persisted state (storage hydration).
func ReconstructChunk(
	id, tenant, channel, category, text string,
	vector []float32, timestamp time.Time, messageCount int,
) ConversationChunk {
	return ConversationChunk{
		id:           id,
		tenant:       tenant,
		channel:      channel,
		category:     category,
		text:         text,
		vector:       vector,
		timestamp:    timestamp,
		messageCount: messageCount,
	}
}

// WithID returns a copy carrying the storage-assigned identifier.
func (c *ConversationChunk) WithID(id string) ConversationChunk {
	out := *c
	out.id = id
	return out
}

// ID returns the tenant-scoped chunk identifier.
func (c *ConversationChunk) ID() string { return c.id }

// Tenant returns the tenant identifier.
func (c *ConversationChunk) Tenant() string { return c.tenant }

// Channel returns the source channel identifier.
func (c *ConversationChunk) Channel() string { return c.channel }

// Category returns the channel category label.
func (c *ConversationChunk) Category() string { return c.category }

// Text returns the merged chunk text.
func (c *ConversationChunk) Text() string { return c.text }

// Vector returns the embedding vector.
func (c *ConversationChunk) Vector() []float32 { return c.vector }

// Timestamp returns the earliest message timestamp in the chunk.
func (c *ConversationChunk) Timestamp() time.Time { return c.timestamp }

// MessageCount returns the number of merged messages.
func (c *ConversationChunk) MessageCount() int { return c.messageCount }
