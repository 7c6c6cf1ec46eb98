package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores JSON values in a Store with a default TTL. The clock is
// injectable so expiry can be tested without sleeping.
type Cache struct {
	store Store
	TTL   time.Duration
	Now   func() time.Time
}

// NewCache wraps s. A non-positive ttl stores entries without expiry.
func NewCache(s Store, ttl time.Duration) *Cache {
	return &Cache{store: s, TTL: ttl, Now: time.Now}
}

// Store returns the underlying backend.
func (c *Cache) Store() Store { return c.store }

func (c *Cache) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// GetJSON decodes the value at key into v. Missing or expired keys return
// ErrNotFound.
func (c *Cache) GetJSON(key string, v any) error {
	e, err := c.store.Get(key)
	if err != nil {
		return err
	}
	if e.Expired(c.now()) {
		_ = c.store.Delete(key)
		return ErrNotFound
	}
	if err := json.Unmarshal(e.Value, v); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v under key. ttl overrides the cache default when positive.
func (c *Cache) SetJSON(key string, v any, ttl time.Duration, indexes map[string]string) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = c.TTL
	}
	e := Entry{Key: key, Value: b, Indexes: indexes}
	if ttl > 0 {
		e.ExpiresAt = c.now().Add(ttl)
	}
	return c.store.Set(e)
}

// Invalidate deletes every entry whose index equals value.
func (c *Cache) Invalidate(index, value string) (int, error) {
	entries, err := c.store.ScanIndex(index, value)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := c.store.Delete(e.Key); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

// Purge removes expired entries.
func (c *Cache) Purge() (int, error) { return c.store.PurgeExpired() }

// Clear removes all entries.
func (c *Cache) Clear() error { return c.store.Clear() }
