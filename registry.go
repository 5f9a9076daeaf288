package injection

import "sync"

// watchRegistry maintains the bijection between watch handles issued by the
// notification subsystem and the absolute directory paths they monitor.
// Mutation happens only from the watch loop; the lock exists so observers
// (Paths, Stats) can snapshot safely while the loop runs.
type watchRegistry struct {
	byHandle map[int32]string
	byPath   map[string]int32
	mu       sync.RWMutex
}

// newWatchRegistry creates an empty registry
func newWatchRegistry() *watchRegistry {
	return &watchRegistry{
		byHandle: make(map[int32]string),
		byPath:   make(map[string]int32),
	}
}

// add records a live handle for a path. Any stale entry on either side is
// evicted first so the mapping never goes one-sided.
func (r *watchRegistry) add(handle int32, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byHandle[handle]; ok {
		delete(r.byPath, old)
	}
	if old, ok := r.byPath[path]; ok {
		delete(r.byHandle, old)
	}
	r.byHandle[handle] = path
	r.byPath[path] = handle
}

// removeHandle evicts the entry for a handle, returning the path it mapped
// to. No-op when the handle is unknown.
func (r *watchRegistry) removeHandle(handle int32) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path, ok := r.byHandle[handle]
	if !ok {
		return "", false
	}
	delete(r.byHandle, handle)
	delete(r.byPath, path)
	return path, true
}

// lookup resolves a handle to its directory path
func (r *watchRegistry) lookup(handle int32) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path, ok := r.byHandle[handle]
	return path, ok
}

// handleFor resolves a path to its live handle
func (r *watchRegistry) handleFor(path string) (int32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.byPath[path]
	return handle, ok
}

// size returns the number of live watches
func (r *watchRegistry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byHandle)
}

// paths returns the currently watched directories
func (r *watchRegistry) paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byPath))
	for p := range r.byPath {
		out = append(out, p)
	}
	return out
}
