// Package cancelreg maps a tracked-file id to the cancellation handle of
// its in-flight transfer, so an upload can be aborted from outside its own
// call stack.
package cancelreg

import (
	"context"
	"sync"
)

// Registry tracks at most one live cancellation handle per id.
// Registering a new handle for an id replaces tracking of any previous
// one; the previous transfer is assumed to have settled already, since a
// file never has two transfers in flight.
type Registry struct {
	mu      sync.Mutex
	handles map[string]context.CancelFunc
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		handles: make(map[string]context.CancelFunc),
	}
}

// Register associates cancel with id.
func (r *Registry) Register(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[id] = cancel
}

// Unregister drops the handle for id, if any.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, id)
}

// Cancel aborts the in-flight transfer for id. Cancelling an unregistered
// id is a silent no-op; the file may already have settled. The bool
// reports whether a handle was found.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	cancel, ok := r.handles[id]
	delete(r.handles, id)
	r.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

// CancelAll aborts every registered transfer.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(r.handles))
	for _, c := range r.handles {
		cancels = append(cancels, c)
	}
	r.handles = make(map[string]context.CancelFunc)
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Len reports the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
