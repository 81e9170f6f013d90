package store

import (
	"time"

	"stasis/internal/logs"
	"stasis/internal/metrics"
)

// Store is a handle to a concurrency-safe in-memory key–value table whose
// entries may carry a time-to-live.
//
// Design principles:
// - Copying a Store is shallow; every copy shares one table and one eviction goroutine
// - A single mutex guards the table and is never held while sleeping or signalling
// - Expired entries are removed only by the eviction goroutine, so Get may
// briefly return a value whose deadline has passed
//
// Note:
// TTL testing uses short sleeps instead of injecting a clock,
// keeping the store free of test-only concerns.
type Store struct {
	shared *shared
}

// New allocates an empty table and starts its eviction goroutine.
// The goroutine runs until Shutdown is called on any copy of the Store.
func New(reg *metrics.Registry, logger *logs.Logger) Store {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	if logger == nil {
		logger = logs.NewLogger(0, logs.ERROR)
	}

	sh := newShared(reg, logger)
	go sh.runEvictor()

	return Store{shared: sh}
}

// Clone returns another handle to the same table.
func (s Store) Clone() Store {
	return s
}

// Get returns a copy of the value stored under key.
//
// A key that was never stored and one that expired and was purged are
// both reported as missing.
func (s Store) Get(key string) ([]byte, bool) {
	s.shared.metrics.Inc(metrics.CacheGetsTotal)

	s.shared.mu.Lock()
	entry, ok := s.shared.state.entries[key]
	s.shared.mu.Unlock()

	if !ok {
		s.shared.metrics.Inc(metrics.CacheMissesTotal)
		return nil, false
	}

	// Stored slices are never mutated, so copying outside the lock is safe.
	return cloneBytes(entry.Data), true
}

// Set stores value under key, replacing any previous value.
//
// ttl <= 0 means "no expiration".
func (s Store) Set(key string, value []byte, ttl time.Duration) {
	s.Swap(key, value, ttl)
}

// Swap is Set that also returns the value it replaced.
func (s Store) Swap(key string, value []byte, ttl time.Duration) ([]byte, bool) {
	data := cloneBytes(value)

	s.shared.mu.Lock()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	prev, existed, wake := s.shared.state.set(key, data, expiresAt)
	s.shared.mu.Unlock()

	// Notify after unlocking so the evictor does not wake into a held lock.
	if wake {
		s.shared.wake.notify()
	}

	s.shared.metrics.Inc(metrics.CacheSetsTotal)
	if !existed {
		s.shared.metrics.Inc(metrics.CacheKeysTotal)
		return nil, false
	}

	// prev is no longer reachable from the table, so it is handed out as is.
	return prev.Data, true
}

// Delete removes key. It reports whether the key was present.
func (s Store) Delete(key string) bool {
	s.shared.mu.Lock()
	_, ok := s.shared.state.remove(key)
	s.shared.mu.Unlock()

	if ok {
		s.shared.metrics.Inc(metrics.CacheDeletesTotal)
		s.shared.metrics.Add(metrics.CacheKeysTotal, -1)
	}
	return ok
}

// Len returns the number of stored entries, including entries whose
// deadline passed but which the evictor has not purged yet.
func (s Store) Len() int {
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()

	return len(s.shared.state.entries)
}

// List returns a snapshot of all stored values.
// Used by admin APIs.
func (s Store) List() map[string][]byte {
	s.shared.mu.Lock()
	entries := make(map[string]Entry, len(s.shared.state.entries))
	for k, v := range s.shared.state.entries {
		entries[k] = v
	}
	s.shared.mu.Unlock()

	out := make(map[string][]byte, len(entries))
	for k, v := range entries {
		out[k] = cloneBytes(v.Data)
	}
	return out
}

// Shutdown stops the eviction goroutine. It is idempotent.
//
// Only purging stops: Get, Set and Delete keep working on the table,
// and entries written afterwards are never expired.
func (s Store) Shutdown() {
	s.shared.mu.Lock()
	s.shared.state.shutdown = true
	s.shared.mu.Unlock()

	// Always wake, the evictor may be sleeping on a far deadline.
	s.shared.wake.notify()
}

// Done is closed once the eviction goroutine has exited.
func (s Store) Done() <-chan struct{} {
	return s.shared.done
}
