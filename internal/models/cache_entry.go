package models

import "time"

// CacheEntry is a row in the gorm-backed cache store, used when no Redis
// endpoint is configured. A zero ExpiresAt means the entry never expires;
// stale rows are dropped lazily on read rather than by the database.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
