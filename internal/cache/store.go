package cache

import (
	"context"
	"time"
)

// Store is the shared cache contract used by rate limiting and short-lived
// lookups. Implementations are safe for concurrent use.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}
