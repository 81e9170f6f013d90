package store

import (
	"sync"
	"time"

	"stasis/internal/logs"
	"stasis/internal/metrics"
)

// shared is the state reachable from every copy of a Store and from the
// eviction goroutine.
type shared struct {
	mu    sync.Mutex
	state *state

	// wake preempts the evictor's current sleep.
	wake *notifier
	// done is closed when the evictor exits.
	done chan struct{}

	metrics *metrics.Registry
	logger  *logs.Logger
}

func newShared(reg *metrics.Registry, logger *logs.Logger) *shared {
	return &shared{
		state:   newState(),
		wake:    newNotifier(),
		done:    make(chan struct{}),
		metrics: reg,
		logger:  logger,
	}
}

// evictExpiredKeys purges every due entry and returns the next deadline
// (zero if none). running is false once shutdown has been requested, in
// which case nothing is purged.
func (s *shared) evictExpiredKeys() (next time.Time, running bool) {
	s.mu.Lock()
	if s.state.shutdown {
		s.mu.Unlock()
		return time.Time{}, false
	}
	removed, next := s.state.evictExpired(time.Now())
	s.mu.Unlock()

	s.metrics.Inc(metrics.EvictorRunsTotal)

	if n := int64(len(removed)); n > 0 {
		s.metrics.Add(metrics.CacheExpiredTotal, n)
		s.metrics.Add(metrics.CacheKeysTotal, -n)
		s.logger.Debugf("evictor purged %d expired keys", n)
	}

	return next, true
}

// runEvictor is the background eviction loop, one per Store.
//
// Each pass purges what is due, then sleeps until the next deadline or
// until woken, whichever comes first. With nothing scheduled it sleeps
// until woken. The loop ends only when the shutdown flag is observed.
func (s *shared) runEvictor() {
	defer close(s.done)

	for {
		next, running := s.evictExpiredKeys()
		if !running {
			break
		}

		if next.IsZero() {
			<-s.wake.wait()
		} else {
			timer := time.NewTimer(time.Until(next))
			select {
			case <-timer.C:
			case <-s.wake.wait():
			}
			timer.Stop()
		}

		s.metrics.Inc(metrics.EvictorWakesTotal)
	}

	s.metrics.Inc(metrics.EvictorStoppedTotal)
	s.logger.Debug("purge background task shut down")
}
