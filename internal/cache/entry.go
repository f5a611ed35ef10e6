// Package cache provides TTL-aware cache entries, an injectable clock and a
// concurrency-safe table of entries.
//
// Staleness is decided at millisecond resolution: an entry fetched at F is
// stale at time N iff N-F > ttl, so an entry exactly ttl old is still served.
package cache

import (
	"sync"
	"time"
)

// Entry wraps a cached value with the wall-clock time it was fetched.
type Entry[T any] struct {
	Value               T     `json:"value"`
	FetchedAtUnixMillis int64 `json:"fetchedAt"`
}

// NewEntry stamps v with fetchedAt.
func NewEntry[T any](v T, fetchedAt time.Time) Entry[T] {
	return Entry[T]{Value: v, FetchedAtUnixMillis: fetchedAt.UnixMilli()}
}

// FetchedAt returns the fetch time as a time.Time in UTC.
func (e Entry[T]) FetchedAt() time.Time {
	return time.UnixMilli(e.FetchedAtUnixMillis).UTC()
}

// Age reports how long ago the entry was fetched.
func (e Entry[T]) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-e.FetchedAtUnixMillis) * time.Millisecond
}

// Stale reports whether the entry is older than ttl at now.
func (e Entry[T]) Stale(now time.Time, ttl time.Duration) bool {
	return now.UnixMilli()-e.FetchedAtUnixMillis > ttl.Milliseconds()
}

// Table is a map of entries guarded by an RWMutex.
// Safe for concurrent use by multiple goroutines.
type Table[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]Entry[V]
}

// NewTable creates an empty table.
func NewTable[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{entries: make(map[K]Entry[V])}
}

// Get returns the entry for key regardless of its age.
func (t *Table[K, V]) Get(key K) (Entry[V], bool) {
	t.mu.RLock()
	e, ok := t.entries[key]
	t.mu.RUnlock()
	return e, ok
}

// Put stores e under key, replacing any previous entry.
func (t *Table[K, V]) Put(key K, e Entry[V]) {
	t.mu.Lock()
	t.entries[key] = e
	t.mu.Unlock()
}

// Len returns the number of entries, fresh or stale.
func (t *Table[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
