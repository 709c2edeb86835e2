package kv

import (
	"context"
	"time"
)

// Store is the command surface the repositories depend on. It is satisfied
// by the Redis-backed implementation in production and by the in-memory
// implementation in tests.
//
// Reads that find nothing are not errors: Get reports presence via its bool,
// HGetAll returns an empty map, range queries return empty slices. Errors
// are reserved for transport, protocol, and timeout failures.
type Store interface {
	// String operations, used for session tokens and similar scalar records.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)

	// Hash operations, used for entity records.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HDel(ctx context.Context, key string, fields ...string) error

	// Sorted-set operations, used for lists and indexes.
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRem(ctx context.Context, key string, members ...string) error
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRangeByScore(ctx context.Context, key string, min, max float64) ([]string, error)
	ZCard(ctx context.Context, key string) (int64, error)

	// Pipeline starts a new empty batch bound to this store.
	Pipeline() Batch

	Ping(ctx context.Context) error
	Close() error
}

// Batch queues commands and submits them in one round trip. Commands run in
// submission order; Exec returns one Result per command in the same order.
//
// Exec returns a non-nil error only for transport-level failures where no
// command outcome is known. Individual command failures are reported in the
// corresponding Result and never abort the remainder of the batch.
type Batch interface {
	HSet(key string, fields map[string]string)
	HGetAll(key string)
	Del(keys ...string)
	ZAdd(key string, score float64, member string)
	ZRem(key string, members ...string)

	// Len reports the number of queued commands.
	Len() int

	Exec(ctx context.Context) ([]Result, error)
}

// Result is the outcome of one command in a batch.
//
// N carries integer replies (DEL and ZREM removal counts, ZADD added
// counts). Hash carries the reply of a queued HGetAll and is nil for other
// commands.
type Result struct {
	Err  error
	N    int64
	Hash map[string]string
}
