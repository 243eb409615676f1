// Package query implements retrieval and question answering over a tenant's
// persisted chunks: load the tenant snapshot, build a flat index, run
// nearest-neighbor search, optionally rerank by cosine similarity, and hand
// the retrieved context to the answer provider.
package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alex-wang101/Quiry/internal/index"
	"github.com/alex-wang101/Quiry/internal/logger"
	"github.com/alex-wang101/Quiry/internal/metrics"
)

// NoIndexedMessagesReply is returned verbatim when a tenant has no persisted
// chunks to search.
const NoIndexedMessagesReply = "No relevant messages have been indexed for this server yet."

// noContextPlaceholder stands in for retrieved context in the prompt when
// retrieval produced no matches.
const noContextPlaceholder = "No similar messages were found in the database."

// Options tunes retrieval.
type Options struct {
	// TopK is the number of nearest neighbors retrieved per query.
	TopK int
	// Rerank reorders the candidates by cosine similarity when true.
	Rerank bool
}

// Match is one retrieved chunk, nearest first.
type Match struct {
	ChunkID string
	Text    string
	// Distance is the squared L2 distance from the query vector.
	Distance float64
	// Score is the cosine similarity to the query, set when reranking is on.
	Score float64

	vector []float32
}

// Service handles retrieval and answering.
type Service struct {
	repo   Repository
	embed  Embedder
	answer Answerer
	opts   Options
}

// New creates a query service.
func New(repo Repository, embed Embedder, answer Answerer, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &Service{repo: repo, embed: embed, answer: answer, opts: opts}
}

// Search retrieves the chunks most similar to the query text. A
// non-positive topK falls back to the configured default. An empty tenant
// yields an empty result, not an error.
func (s *Service) Search(ctx context.Context, tenant, queryText string, topK int) ([]Match, error) {
	matches, err := s.search(ctx, tenant, queryText, topK)
	switch {
	case err != nil:
		metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	case len(matches) == 0:
		metrics.RetrievalRequestsTotal.WithLabelValues("empty").Inc()
	default:
		metrics.RetrievalRequestsTotal.WithLabelValues("success").Inc()
	}
	return matches, nil
}

func (s *Service) search(ctx context.Context, tenant, queryText string, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = s.opts.TopK
	}

	chunks, err := s.repo.FindAll(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	entries := make([]index.Entry, len(chunks))
	for i := range chunks {
		entries[i] = index.Entry{ID: chunks[i].ID(), Vector: chunks[i].Vector(), Text: chunks[i].Text()}
	}
	flat, err := index.Build(entries)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	embRes, err := s.embed.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := flat.Search(embRes.Embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	matches := make([]Match, len(hits))
	for i, h := range hits {
		matches[i] = Match{
			ChunkID:  h.Entry.ID,
			Text:     h.Entry.Text,
			Distance: h.Distance,
			vector:   h.Entry.Vector,
		}
	}

	if s.opts.Rerank {
		rerankByCosine(embRes.Embedding, matches)
	}

	logger.FromContext(ctx).Debug("retrieval complete",
		zap.String("tenant", tenant),
		zap.Int("indexed", len(chunks)),
		zap.Int("matches", len(matches)),
		zap.Bool("reranked", s.opts.Rerank))
	return matches, nil
}

// Ask retrieves context for the question and generates an answer. A tenant
// with nothing indexed gets a fixed reply without calling the answer
// provider.
func (s *Service) Ask(ctx context.Context, tenant, question string, topK int) (string, error) {
	matches, err := s.Search(ctx, tenant, question, topK)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return NoIndexedMessagesReply, nil
	}

	answer, err := s.answer.Generate(ctx, buildPrompt(matches, question))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}

// buildPrompt composes the grounding prompt from the retrieved chunk texts
// and the user question.
func buildPrompt(matches []Match, question string) string {
	contextText := noContextPlaceholder
	if len(matches) > 0 {
		texts := make([]string, len(matches))
		for i, m := range matches {
			texts[i] = m.Text
		}
		contextText = strings.Join(texts, "\n\n")
	}

	var b strings.Builder
	b.WriteString("You are answering a question using past messages from this server.\n\n")
	b.WriteString("Past messages:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nUser query: ")
	b.WriteString(question)
	return b.String()
}
