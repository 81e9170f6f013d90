package store

import "time"

// Entry represents a single value stored in the cache.
//
// Design choices:
// - ID is assigned from a monotonic counter on every write and never reused.
// - Data is never mutated in place; an overwrite installs a new Entry.
// - Zero value of ExpiresAt means "no expiration".
type Entry struct {
	ID        uint64
	Data      []byte
	ExpiresAt time.Time
}

// HasExpiry reports whether the entry carries a deadline.
func (e Entry) HasExpiry() bool {
	return !e.ExpiresAt.IsZero()
}

// IsExpired checks whether the entry's deadline is at or before now.
func (e Entry) IsExpired(now time.Time) bool {
	if !e.HasExpiry() {
		return false
	}
	return !e.ExpiresAt.After(now)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
