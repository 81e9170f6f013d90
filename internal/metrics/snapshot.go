package metrics

import "sync/atomic"

// Snapshot returns a deep copy of all metrics.
// Safe for concurrent use and immune to external mutation.
func (r *Registry) Snapshot() map[string]int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int64, len(r.counters))
	for key, ptr := range r.counters {
		out[string(key)] = atomic.LoadInt64(ptr)
	}
	return out
}

// Ratio returns num/den from a snapshot, or 0 when den is zero.
func Ratio(snapshot map[string]int64, num, den MetricKey) float64 {
	d := snapshot[string(den)]
	if d == 0 {
		return 0
	}
	return float64(snapshot[string(num)]) / float64(d)
}
