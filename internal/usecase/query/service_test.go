package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alex-wang101/Quiry/internal/domain"
)

func TestSearch_EmptyTenant(t *testing.T) {
	emb := &mockEmbedder{}
	svc := New(&mockRepo{}, emb, &mockAnswerer{}, Options{TopK: 5, Rerank: true})

	matches, err := svc.Search(context.Background(), "guild-1", "anything", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches for an empty tenant, got %d", len(matches))
	}
	if emb.calls != 0 {
		t.Errorf("embedder must not be called for an empty tenant, got %d calls", emb.calls)
	}
}

func TestSearch_NearestFirst(t *testing.T) {
	repo := repoWith(
		storedChunk("a", "chunk a", []float32{1, 0}),
		storedChunk("b", "chunk b", []float32{0, 1}),
		storedChunk("c", "chunk c", []float32{0.9, 0.1}),
	)
	svc := New(repo, &mockEmbedder{}, &mockAnswerer{}, Options{TopK: 2, Rerank: true})

	matches, err := svc.Search(context.Background(), "guild-1", "query", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ChunkID != "a" || matches[1].ChunkID != "c" {
		t.Errorf("expected matches [a c], got [%s %s]", matches[0].ChunkID, matches[1].ChunkID)
	}
	if matches[0].Score < matches[1].Score {
		t.Errorf("expected descending scores, got %f then %f", matches[0].Score, matches[1].Score)
	}
}

func TestSearch_RerankReordersCandidates(t *testing.T) {
	// b is closer by L2 but a points exactly along the query, so cosine
	// reranking swaps them.
	repo := repoWith(
		storedChunk("a", "aligned but short", []float32{0.5, 0}),
		storedChunk("b", "long but skewed", []float32{1, 0.4}),
	)
	embed := &mockEmbedder{embedFunc: func(ctx context.Context, text string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
	}}

	reranked := New(repo, embed, &mockAnswerer{}, Options{TopK: 2, Rerank: true})
	matches, err := reranked.Search(context.Background(), "guild-1", "query", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if matches[0].ChunkID != "a" || matches[1].ChunkID != "b" {
		t.Errorf("expected reranked order [a b], got [%s %s]", matches[0].ChunkID, matches[1].ChunkID)
	}

	raw := New(repo, embed, &mockAnswerer{}, Options{TopK: 2, Rerank: false})
	matches, err = raw.Search(context.Background(), "guild-1", "query", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if matches[0].ChunkID != "b" || matches[1].ChunkID != "a" {
		t.Errorf("expected distance order [b a], got [%s %s]", matches[0].ChunkID, matches[1].ChunkID)
	}
}

func TestSearch_RerankNeverAdmitsNewCandidates(t *testing.T) {
	// d would win on cosine but is outside the top-2 by L2, so it must not
	// appear in the result.
	repo := repoWith(
		storedChunk("a", "a", []float32{0.5, 0}),
		storedChunk("b", "b", []float32{0.6, 0}),
		storedChunk("d", "d", []float32{4, 0}),
	)
	svc := New(repo, &mockEmbedder{}, &mockAnswerer{}, Options{TopK: 2, Rerank: true})

	matches, err := svc.Search(context.Background(), "guild-1", "query", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, m := range matches {
		if m.ChunkID == "d" {
			t.Fatal("reranking must not admit candidates beyond the L2 top-k")
		}
	}
}

func TestSearch_StoredDimensionMismatch(t *testing.T) {
	repo := repoWith(
		storedChunk("a", "a", []float32{1, 0}),
		storedChunk("b", "b", []float32{1, 0, 0}),
	)
	svc := New(repo, &mockEmbedder{}, &mockAnswerer{}, Options{TopK: 5, Rerank: true})

	_, err := svc.Search(context.Background(), "guild-1", "query", 0)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	repo := repoWith(storedChunk("a", "a", []float32{1, 0}))
	embed := &mockEmbedder{embedFunc: func(ctx context.Context, text string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}}, nil
	}}
	svc := New(repo, embed, &mockAnswerer{}, Options{TopK: 5, Rerank: true})

	_, err := svc.Search(context.Background(), "guild-1", "query", 0)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestSearch_StorageError(t *testing.T) {
	repo := &mockRepo{findAllFunc: func(ctx context.Context, tenant string) ([]domain.ConversationChunk, error) {
		return nil, domain.ErrStorageUnavailable
	}}
	svc := New(repo, &mockEmbedder{}, &mockAnswerer{}, Options{TopK: 5, Rerank: true})

	_, err := svc.Search(context.Background(), "guild-1", "query", 0)
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestAsk_EmptyTenantSkipsAnswerer(t *testing.T) {
	answer := &mockAnswerer{}
	svc := New(&mockRepo{}, &mockEmbedder{}, answer, Options{TopK: 5, Rerank: true})

	got, err := svc.Ask(context.Background(), "guild-1", "what happened?", 0)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if got != NoIndexedMessagesReply {
		t.Errorf("expected the fixed no-index reply, got %q", got)
	}
	if answer.calls != 0 {
		t.Errorf("answerer must not be called for an empty tenant, got %d calls", answer.calls)
	}
}

func TestAsk_PromptCarriesContextAndQuestion(t *testing.T) {
	repo := repoWith(
		storedChunk("a", "alice (id:1) at 2025-06-01T12:00:00Z said: deploy is friday", []float32{1, 0}),
	)
	var prompt string
	answer := &mockAnswerer{generateFunc: func(ctx context.Context, p string) (string, error) {
		prompt = p
		return "deploy is on friday", nil
	}}
	svc := New(repo, &mockEmbedder{}, answer, Options{TopK: 5, Rerank: true})

	got, err := svc.Ask(context.Background(), "guild-1", "when is the deploy?", 0)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if got != "deploy is on friday" {
		t.Errorf("unexpected answer %q", got)
	}
	if !strings.Contains(prompt, "deploy is friday") {
		t.Errorf("prompt missing retrieved context: %q", prompt)
	}
	if !strings.Contains(prompt, "when is the deploy?") {
		t.Errorf("prompt missing the question: %q", prompt)
	}
}

func TestAsk_AnswererFailure(t *testing.T) {
	repo := repoWith(storedChunk("a", "a", []float32{1, 0}))
	answer := &mockAnswerer{generateFunc: func(ctx context.Context, p string) (string, error) {
		return "", domain.ErrAnswerProviderError
	}}
	svc := New(repo, &mockEmbedder{}, answer, Options{TopK: 5, Rerank: true})

	_, err := svc.Ask(context.Background(), "guild-1", "question", 0)
	if !errors.Is(err, domain.ErrAnswerProviderError) {
		t.Fatalf("expected ErrAnswerProviderError, got %v", err)
	}
}
