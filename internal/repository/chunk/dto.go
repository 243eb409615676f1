package chunk

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alex-wang101/Quiry/internal/domain"
)

// chunkDoc is the stored JSON shape of a conversation chunk.
type chunkDoc struct {
	Tenant       string    `json:"tenant"`
	Channel      string    `json:"channel"`
	Category     string    `json:"category"`
	TextMessage  string    `json:"text_message"`
	Embedding    []float32 `json:"embedding"`
	Timestamp    int64     `json:"timestamp"` // unix millis, UTC
	MessageCount int       `json:"message_count"`
}

func docFromChunk(c *domain.ConversationChunk) chunkDoc {
	return chunkDoc{
		Tenant:       c.Tenant(),
		Channel:      c.Channel(),
		Category:     c.Category(),
		TextMessage:  c.Text(),
		Embedding:    c.Vector(),
		Timestamp:    c.Timestamp().UnixMilli(),
		MessageCount: c.MessageCount(),
	}
}

func (d *chunkDoc) toChunk(id string) domain.ConversationChunk {
	return domain.ReconstructChunk(
		id, d.Tenant, d.Channel, d.Category, d.TextMessage,
		d.Embedding, time.UnixMilli(d.Timestamp).UTC(), d.MessageCount,
	)
}

// validate rejects documents unusable for index construction. Catching
// them here keeps lookups inside the index build from failing on
// malformed storage state.
func (d *chunkDoc) validate() error {
	if d.TextMessage == "" {
		return fmt.Errorf("missing text_message")
	}
	if len(d.Embedding) == 0 {
		return fmt.Errorf("missing embedding")
	}
	return nil
}

// parseDoc unwraps a JSONPath result ("$" returns a one-element array).
func parseDoc(raw []byte) (chunkDoc, error) {
	var docs []chunkDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return chunkDoc{}, fmt.Errorf("unmarshal chunk: %w", err)
	}
	if len(docs) == 0 {
		return chunkDoc{}, fmt.Errorf("empty chunk document")
	}
	return docs[0], nil
}
