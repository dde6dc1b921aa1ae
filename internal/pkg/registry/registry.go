// Package registry provides a process-wide create-or-reuse registry for
// long-lived keyed objects, such as per-actor mini-game sessions. It replaces
// the ambient "current instance" global with an injectable object that has
// explicit teardown.
package registry

import "sync"

// Registry holds at most one value per key. Zero value is not usable; use New.
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[string]T
}

// New creates an empty registry
func New[T any]() *Registry[T] {
	return &Registry[T]{
		entries: make(map[string]T),
	}
}

// GetOrCreate returns the value registered under key, creating and
// registering one with create when absent. The second return reports whether
// a new value was created.
func (r *Registry[T]) GetOrCreate(key string, create func() T) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.entries[key]; ok {
		return v, false
	}

	v := create()
	r.entries[key] = v
	return v, true
}

// Get returns the value registered under key, if any
func (r *Registry[T]) Get(key string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.entries[key]
	return v, ok
}

// Remove tears down the entry for key. Removing an absent key is a no-op.
func (r *Registry[T]) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, key)
}

// Len returns the number of registered entries
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}
