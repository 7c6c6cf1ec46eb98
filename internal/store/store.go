// Package store provides the key-value backends used to cache analysis
// results. Entries carry secondary indexes and an optional expiry.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned for missing and expired keys.
var ErrNotFound = errors.New("store: key not found")

// Entry is one stored value. A zero ExpiresAt never expires.
type Entry struct {
	Key       string            `json:"key"`
	Value     []byte            `json:"value"`
	Indexes   map[string]string `json:"indexes,omitempty"`
	ExpiresAt time.Time         `json:"expires_at,omitempty"`
}

// Expired reports whether e has expired at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Store is a key-value store with secondary indexes and explicit expiry.
type Store interface {
	Get(key string) (Entry, error)
	Set(e Entry) error
	Delete(key string) error
	// ScanIndex returns the live entries whose index name equals value.
	ScanIndex(index, value string) ([]Entry, error)
	// PurgeExpired removes expired entries and reports how many were removed.
	PurgeExpired() (int, error)
	// Clear removes every entry.
	Clear() error
	Close() error
}

// Option configures a backend.
type Option func(*options)

type options struct {
	now    func() time.Time
	prefix string
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, prefix: "salesloom:"}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithPrefix namespaces keys in shared backends such as Redis.
func WithPrefix(p string) Option {
	return func(o *options) { o.prefix = p }
}
