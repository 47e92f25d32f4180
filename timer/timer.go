// Package timer implements a named-timer registry with idempotent-by-name scheduling semantics.
//
// Every delayed callback in a playback session is owned by a registry instance;
// destroying the registry guarantees that no previously scheduled callback runs,
// which is the primary defense against callbacks firing into a torn-down session.
package timer

import (
	"sync"
	"time"
)

// entry pairs a scheduled timer with its identity inside the registry.
type entry struct {
	timer *time.Timer
}

// Registry is a collection of named, cancellable, single-shot timers.
// Scheduling under an existing name cancels the previous timer first.
type Registry struct {
	mu     sync.Mutex
	timers map[string]*entry
	closed bool
}

// NewRegistry creates an empty timer registry.
func NewRegistry() *Registry {
	return &Registry{
		timers: make(map[string]*entry),
	}
}

// Set schedules fn to run after delay under the given name.
// Any timer previously registered under the same name is cancelled,
// so repeated Set calls for one purpose never stack duplicate callbacks.
// Calling Set on a closed registry is a no-op.
func (r *Registry) Set(name string, delay time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	if prev, ok := r.timers[name]; ok {
		prev.timer.Stop()
	}

	e := &entry{}
	e.timer = time.AfterFunc(delay, func() {
		// The timer may have fired while a Clear/ClearAll/Set raced it.
		// Membership is re-checked under the lock: the callback runs only
		// if this exact entry is still the registered owner of the name.
		r.mu.Lock()
		current, ok := r.timers[name]
		if r.closed || !ok || current != e {
			r.mu.Unlock()
			return
		}
		delete(r.timers, name)
		r.mu.Unlock()

		fn()
	})
	r.timers[name] = e
}

// Clear cancels the timer registered under name, if any.
func (r *Registry) Clear(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.timers[name]; ok {
		e.timer.Stop()
		delete(r.timers, name)
	}
}

// Active reports whether a timer is currently registered under name.
func (r *Registry) Active(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.timers[name]
	return ok
}

// ClearAll cancels every outstanding timer. After ClearAll returns,
// no previously scheduled callback will run.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, e := range r.timers {
		e.timer.Stop()
		delete(r.timers, name)
	}
}

// Close cancels every outstanding timer and permanently disables the registry.
// Subsequent Set calls are ignored.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for name, e := range r.timers {
		e.timer.Stop()
		delete(r.timers, name)
	}
}
