package chunk

import (
	"context"
	"testing"
	"time"

	"github.com/alex-wang101/Quiry/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn      func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn      func(ctx context.Context, key string, paths ...string) ([]byte, error)
	jsonGetMultiFn func(ctx context.Context, keys []string, path string) ([][]byte, error)
	delMultiFn     func(ctx context.Context, keys []string) (int64, error)
	zaddFn         func(ctx context.Context, key string, score float64, member string) error
	zmembersFn     func(ctx context.Context, key string) ([]string, error)
	zrevRangeFn    func(ctx context.Context, key string, limit int) ([]string, error)
	zremFn         func(ctx context.Context, key string, members []string) (int64, error)
	zcardFn        func(ctx context.Context, key string) (int64, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, nil
}

func (m *mockStore) JSONGetMulti(ctx context.Context, keys []string, path string) ([][]byte, error) {
	if m.jsonGetMultiFn != nil {
		return m.jsonGetMultiFn(ctx, keys, path)
	}
	return make([][]byte, len(keys)), nil
}

func (m *mockStore) DelMulti(ctx context.Context, keys []string) (int64, error) {
	if m.delMultiFn != nil {
		return m.delMultiFn(ctx, keys)
	}
	return int64(len(keys)), nil
}

func (m *mockStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	if m.zaddFn != nil {
		return m.zaddFn(ctx, key, score, member)
	}
	return nil
}

func (m *mockStore) ZMembers(ctx context.Context, key string) ([]string, error) {
	if m.zmembersFn != nil {
		return m.zmembersFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) ZRevRange(ctx context.Context, key string, limit int) ([]string, error) {
	if m.zrevRangeFn != nil {
		return m.zrevRangeFn(ctx, key, limit)
	}
	return nil, nil
}

func (m *mockStore) ZRem(ctx context.Context, key string, members []string) (int64, error) {
	if m.zremFn != nil {
		return m.zremFn(ctx, key, members)
	}
	return int64(len(members)), nil
}

func (m *mockStore) ZCard(ctx context.Context, key string) (int64, error) {
	if m.zcardFn != nil {
		return m.zcardFn(ctx, key)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "quiry:"), ms
}

func testChunk(t *testing.T) domain.ConversationChunk {
	t.Helper()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.ReconstructChunk(
		"", "guild-1", "general", "Chat",
		"alice (id:42) at 2025-03-01T12:00:00Z said: hello",
		[]float32{0.1, 0.2}, ts, 1,
	)
}
