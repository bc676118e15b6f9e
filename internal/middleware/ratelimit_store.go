package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/vibeplanner/vibeplanner/internal/cache"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// rateWindow tracks one key's hit count until the window closes.
type rateWindow struct {
	count int
	until time.Time
}

// memoryRateStore provides process-local rate limiting. Counters reset when
// the process restarts, so multi-instance deployments should use the cache
// backed store instead.
type memoryRateStore struct {
	mu    sync.Mutex
	data  map[string]*rateWindow
	tick  *time.Ticker
	clock func() time.Time
}

// NewMemoryRateStore constructs an in-memory rate store.
func NewMemoryRateStore() RateStore {
	store := &memoryRateStore{
		data:  make(map[string]*rateWindow),
		tick:  time.NewTicker(time.Minute),
		clock: time.Now,
	}

	go store.sweepExpired()
	return store
}

func (s *memoryRateStore) sweepExpired() {
	for range s.tick.C {
		now := s.clock()
		s.mu.Lock()
		for key, win := range s.data {
			if now.After(win.until) {
				delete(s.data, key)
			}
		}
		s.mu.Unlock()
	}
}

func (s *memoryRateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	win, ok := s.data[key]
	if !ok || now.After(win.until) {
		win = &rateWindow{until: now.Add(window)}
		s.data[key] = win
	}
	win.count++

	return win.count, win.until.Sub(now), nil
}

// cacheRateStore adapts a cache.Store to the RateStore interface so the
// counters survive restarts and are shared across instances.
type cacheRateStore struct {
	store cache.Store
}

// NewCacheRateStore wraps a cache store (Redis or database backed) in a
// RateStore implementation.
func NewCacheRateStore(store cache.Store) RateStore {
	if store == nil {
		return nil
	}
	return &cacheRateStore{store: store}
}

func (s *cacheRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	count, ttl, err := s.store.IncrementWithTTL(ctx, key, window)
	return int(count), ttl, err
}
