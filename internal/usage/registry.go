// Package usage decides which behavior scripts are used by at least one
// serialized instance and reports the ones that never are.
package usage

import (
	"sort"
	"sync"
)

// Registry is the set of script GUIDs observed in use. It only grows;
// marking an identity twice is a no-op. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	used map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{used: make(map[string]struct{})}
}

// Mark records guid as used. It reports whether guid was newly added.
func (r *Registry) Mark(guid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.used[guid]; ok {
		return false
	}
	r.used[guid] = struct{}{}
	return true
}

// Has reports whether guid has been marked.
func (r *Registry) Has(guid string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.used[guid]
	return ok
}

// Len returns the number of marked identities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.used)
}

// Snapshot returns the marked identities sorted.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.used))
	for g := range r.used {
		out = append(out, g)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}
