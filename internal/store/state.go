package store

import (
	"time"

	"github.com/google/btree"
)

const btreeDegree = 32

// expiration is one record of the expiration index.
// Records order by deadline, then by entry id. key does not take part in ordering.
type expiration struct {
	at  time.Time
	id  uint64
	key string
}

func expirationLess(a, b expiration) bool {
	if !a.at.Equal(b.at) {
		return a.at.Before(b.at)
	}
	return a.id < b.id
}

// state is the single mutable table behind a Store.
//
// Every method requires the caller to hold shared.mu.
//
// Invariant: each entry with a deadline owns exactly one record
// (ExpiresAt, ID) in expirations, and no other record names its key.
type state struct {
	entries     map[string]Entry
	expirations *btree.BTreeG[expiration]
	nextID      uint64
	shutdown    bool
}

func newState() *state {
	return &state{
		entries:     make(map[string]Entry),
		expirations: btree.NewG[expiration](btreeDegree, expirationLess),
	}
}

// nextExpiration returns the earliest scheduled deadline, if any.
func (s *state) nextExpiration() (time.Time, bool) {
	first, ok := s.expirations.Min()
	return first.at, ok
}

// set installs data under key. It returns the entry it replaced, if any, and
// whether the new deadline is now the earliest one in the index.
func (s *state) set(key string, data []byte, expiresAt time.Time) (prev Entry, existed bool, wake bool) {
	id := s.nextID
	s.nextID++

	if !expiresAt.IsZero() {
		next, ok := s.nextExpiration()
		wake = !ok || expiresAt.Before(next)

		s.expirations.ReplaceOrInsert(expiration{at: expiresAt, id: id, key: key})
	}

	prev, existed = s.entries[key]
	s.entries[key] = Entry{
		ID:        id,
		Data:      data,
		ExpiresAt: expiresAt,
	}

	// The replaced entry's record must go in the same critical section,
	// otherwise it would later purge the new value under a stale id.
	if existed && prev.HasExpiry() {
		s.expirations.Delete(expiration{at: prev.ExpiresAt, id: prev.ID})
	}

	return prev, existed, wake
}

// remove drops key and its expiration record.
func (s *state) remove(key string) (Entry, bool) {
	prev, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}

	delete(s.entries, key)
	if prev.HasExpiry() {
		s.expirations.Delete(expiration{at: prev.ExpiresAt, id: prev.ID})
	}
	return prev, true
}

// evictExpired removes, in index order, every entry whose deadline is at or
// before now. It returns the removed keys and the next pending deadline
// (zero when the index is empty).
//
// Work is bounded by the number of due records, not the table size.
func (s *state) evictExpired(now time.Time) (removed []string, next time.Time) {
	for {
		first, ok := s.expirations.Min()
		if !ok {
			return removed, time.Time{}
		}
		if first.at.After(now) {
			return removed, first.at
		}

		s.expirations.DeleteMin()

		if e, ok := s.entries[first.key]; ok && e.ID == first.id {
			delete(s.entries, first.key)
			removed = append(removed, first.key)
		}
	}
}
