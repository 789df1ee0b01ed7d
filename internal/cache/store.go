// Package cache is the Local Cache Store: an ordered key→(value, timestamp)
// map bounded by a character budget, with FIFO-by-install eviction and
// last-writer-wins-by-timestamp conflict resolution (spec §3, §4.4).
//
// The ordered map is backed by hashicorp/golang-lru/v2's simplelru.LRU,
// used here purely for its ordering primitive (insertion/access order plus
// O(1) oldest-removal) rather than for its own size-based auto-eviction —
// this store's bound is a character budget, not an entry count, so eviction
// decisions are driven by this package, not by the LRU's internal capacity.
// Reads go through Peek, never Get, so a lookup never reorders an entry —
// matching spec §4.4: "get(key) … Does not update ordering," which pins the
// FIFO-by-install-order semantics spec §9 picks for eviction determinism.
package cache

import (
	"errors"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"
)

// ErrTooBig is returned when a single entry's character cost alone exceeds
// the store's MAX_SIZE budget (spec §4.4) — it is never retried internally.
var ErrTooBig = errors.New("cache: entry exceeds max size")

type record struct {
	value     string
	timestamp time.Time
}

// Store is the Local Cache Store. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	maxSize  int
	size     int // running Σ(|key|+|value|)
	entries  *lru.LRU[string, record]
	onChange func(length, size int) // optional, called after a mutation
}

// New creates a Store with the given aggregate character budget.
func New(maxSize int) *Store {
	// Capacity is set to the largest practical value: size-bounded eviction
	// is handled explicitly below, never by the LRU's own count-based
	// capacity check.
	entries, err := lru.NewLRU[string, record](math.MaxInt32, nil)
	if err != nil {
		// Only returns an error for a non-positive size, which math.MaxInt32
		// never is.
		panic(err)
	}
	return &Store{maxSize: maxSize, entries: entries}
}

// OnChange registers fn to be called, with the current entry count and
// aggregate character size, after every mutation (install, overwrite,
// eviction, or delete) — the hook a caller uses to keep an external gauge
// (e.g. Prometheus) in step with the store without polling it.
func (s *Store) OnChange(fn func(length, size int)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// notifyLocked invokes the change hook, if any. Must be called with s.mu
// held — the hook itself (a Gauge.Set call) is expected to be fast and
// non-reentrant.
func (s *Store) notifyLocked() {
	if s.onChange != nil {
		s.onChange(s.entries.Len(), s.size)
	}
}

// Put installs key=value at timestamp ts. An empty value deletes the key
// (ok even if the key was absent). A non-empty entry whose cost
// |key|+|value| alone exceeds the budget is rejected with ErrTooBig without
// touching existing state.
// Otherwise, existing entries are evicted oldest-first until the new entry
// fits. If key already holds a strictly newer timestamp, the write is
// accepted (returns nil) but the stored value is left untouched — spec
// §4.4's last-writer-wins rule, ties favoring the existing entry.
func (s *Store) Put(key, value string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == "" {
		s.removeLocked(key)
		s.notifyLocked()
		return nil
	}

	cost := len(key) + len(value)
	if cost > s.maxSize {
		return ErrTooBig
	}

	existingCost := 0
	if old, ok := s.entries.Peek(key); ok {
		if !ts.After(old.timestamp) {
			return nil // existing is newer, or tied — existing wins
		}
		existingCost = len(key) + len(old.value)
	}

	for s.size+cost-existingCost > s.maxSize {
		oldKey, oldRec, ok := s.entries.RemoveOldest()
		if !ok {
			break
		}
		s.size -= len(oldKey) + len(oldRec.value)
		if oldKey == key {
			existingCost = 0 // already subtracted via this removal
		}
	}

	s.entries.Add(key, record{value: value, timestamp: ts})
	s.size += cost - existingCost
	s.notifyLocked()
	return nil
}

// Get returns the stored value and its timestamp without disturbing
// eviction order. ok is false on a miss.
func (s *Store) Get(key string) (value string, ts time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, found := s.entries.Peek(key)
	if !found {
		return "", time.Time{}, false
	}
	return rec.value, rec.timestamp, true
}

// Delete removes key unconditionally — equivalent to Put(key, "", _).
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(key)
	s.notifyLocked()
}

func (s *Store) removeLocked(key string) {
	if old, ok := s.entries.Peek(key); ok {
		s.entries.Remove(key)
		s.size -= len(key) + len(old.value)
	}
}

// Size returns the current aggregate character count, Σ(|key|+|value|).
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Len returns the number of entries currently stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len()
}

// MaxSize returns the configured character budget.
func (s *Store) MaxSize() int { return s.maxSize }
