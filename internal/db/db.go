// Package db defines the storage facade the repositories consume and its
// driver-agnostic error wrapping. The concrete driver lives in db/redis.
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces, not on Store.
type Store interface {
	Pinger
	JSONStore
	TimelineStore
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONStore provides JSON document operations.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string, path string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) (int64, error)
}

// TimelineStore provides sorted-set operations keyed by timestamp score.
type TimelineStore interface {
	ZAdd(ctx context.Context, key string, score float64, member string) error
	// ZMembers returns all members ascending by score.
	ZMembers(ctx context.Context, key string) ([]string, error)
	// ZRevRange returns up to limit members descending by score.
	ZRevRange(ctx context.Context, key string, limit int) ([]string, error)
	ZRem(ctx context.Context, key string, members []string) (int64, error)
	ZCard(ctx context.Context, key string) (int64, error)
}

// KVStore provides simple key-value operations with TTL.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
