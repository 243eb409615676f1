package domain

import (
	"strings"
	"time"
)

// NoCategory is the sentinel category for channels outside any grouping.
const NoCategory = "No Category"

// BufferKey identifies one chunk buffer: a (tenant, channel) pair.
type BufferKey struct {
	Tenant  string
	Channel string
}

// RawMessage is one inbound chat message. Ephemeral: it is consumed by the
// buffering layer and never persisted directly.
type RawMessage struct {
	tenant    string
	channel   string
	author    string
	authorID  int64
	content   string
	category  string
	timestamp time.Time
}

// NewRawMessage validates and creates a RawMessage.
// Whitespace-only content yields ErrEmptyContent; missing tenant or channel
// identity is a caller bug surfaced as an error. Timestamps are normalized
// to UTC; a zero timestamp defaults to now. Empty category defaults to
// NoCategory.
func NewRawMessage(
	tenant, channel, author string, authorID int64,
	content, category string, timestamp time.Time,
) (RawMessage, error) {
	if tenant == "" {
		return RawMessage{}, ErrMissingTenant
	}
	if channel == "" {
		return RawMessage{}, ErrMissingChannel
	}
	if strings.TrimSpace(content) == "" {
		return RawMessage{}, ErrEmptyContent
	}
	if category == "" {
		category = NoCategory
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return RawMessage{
		tenant:    tenant,
		channel:   channel,
		author:    author,
		authorID:  authorID,
		content:   content,
		category:  category,
		timestamp: timestamp.UTC(),
	}, nil
}

// Key returns the buffer key selecting this message's chunk buffer.
func (m *RawMessage) Key() BufferKey {
	return BufferKey{Tenant: m.tenant, Channel: m.channel}
}

// Tenant returns the tenant identifier.
func (m *RawMessage) Tenant() string { return m.tenant }

// Channel returns the channel identifier.
func (m *RawMessage) Channel() string { return m.channel }

// Author returns the author display identity.
func (m *RawMessage) Author() string { return m.author }

// AuthorID returns the author numeric identifier.
func (m *RawMessage) AuthorID() int64 { return m.authorID }

// Content returns the message text.
func (m *RawMessage) Content() string { return m.content }

// Category returns the channel category label.
func (m *RawMessage) Category() string { return m.category }

// Timestamp returns the message time in UTC.
func (m *RawMessage) Timestamp() time.Time { return m.timestamp }
