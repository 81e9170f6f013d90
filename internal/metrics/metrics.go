package metrics

import (
	"sync"
	"sync/atomic"
)

// MetricKey is a strongly typed metric identifier.
type MetricKey string

// Metric keys (centralized)
const (
	// Cache
	CacheKeysTotal    MetricKey = "cache_keys_total"
	CacheSetsTotal    MetricKey = "cache_sets_total"
	CacheGetsTotal    MetricKey = "cache_gets_total"
	CacheMissesTotal  MetricKey = "cache_misses_total"
	CacheDeletesTotal MetricKey = "cache_deletes_total"
	CacheExpiredTotal MetricKey = "cache_expired_total"

	// Evictor
	EvictorRunsTotal    MetricKey = "evictor_runs_total"
	EvictorWakesTotal   MetricKey = "evictor_wakes_total"
	EvictorStoppedTotal MetricKey = "evictor_stopped_total"

	// Server
	ConnectionsTotal      MetricKey = "connections_total"
	ConnectionsActive     MetricKey = "connections_active"
	ConnectionErrorsTotal MetricKey = "connection_errors_total"
	CommandsTotal         MetricKey = "commands_total"
	CommandErrorsTotal    MetricKey = "command_errors_total"
	FrameErrorsTotal      MetricKey = "frame_errors_total"

	// HTTP
	HTTPRequestsTotal MetricKey = "http_requests_total"
	HTTPPanicsTotal   MetricKey = "http_panics_total"
)

// Registry stores all metrics.
type Registry struct {
	mu       sync.RWMutex
	counters map[MetricKey]*int64
}

// NewRegistry creates a metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[MetricKey]*int64),
	}
}

// Inc increments a metric by 1.
func (r *Registry) Inc(key MetricKey) {
	r.Add(key, 1)
}

// Add increments a metric by delta.
func (r *Registry) Add(key MetricKey, delta int64) {
	r.mu.RLock()
	ptr, ok := r.counters[key]
	r.mu.RUnlock()

	if ok {
		atomic.AddInt64(ptr, delta)
		return
	}

	// Slow path: metric not yet initialized
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if ptr, ok = r.counters[key]; ok {
		atomic.AddInt64(ptr, delta)
		return
	}

	var val int64
	r.counters[key] = &val
	atomic.AddInt64(&val, delta)
}

// Get returns the current value of a single metric, zero if unset.
func (r *Registry) Get(key MetricKey) int64 {
	r.mu.RLock()
	ptr, ok := r.counters[key]
	r.mu.RUnlock()

	if !ok {
		return 0
	}
	return atomic.LoadInt64(ptr)
}
