package store

import (
	"stasis/internal/logs"
	"stasis/internal/metrics"
)

// Engine owns one Store and is the single party responsible for stopping its
// eviction goroutine.
//
// Clones handed out by Store may be retained anywhere (one per connection,
// for instance), so their lifetimes cannot be relied on to end the
// goroutine. Close does it explicitly.
type Engine struct {
	store Store
}

// NewEngine creates an Engine wrapping a new Store.
func NewEngine(reg *metrics.Registry, logger *logs.Logger) *Engine {
	return &Engine{
		store: New(reg, logger),
	}
}

// Store returns a handle to the shared table.
func (e *Engine) Store() Store {
	return e.store.Clone()
}

// Close shuts the eviction goroutine down and waits for it to exit.
// Handles obtained from Store stay usable. Close is safe to call multiple times.
func (e *Engine) Close() error {
	e.store.Shutdown()
	<-e.store.Done()
	return nil
}
