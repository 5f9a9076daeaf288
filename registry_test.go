package injection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegistry_AddLookup tests the bidirectional mapping
func TestRegistry_AddLookup(t *testing.T) {
	r := newWatchRegistry()
	r.add(1, "/w/a")
	r.add(2, "/w/b")

	path, ok := r.lookup(1)
	require.True(t, ok)
	assert.Equal(t, "/w/a", path)

	handle, ok := r.handleFor("/w/b")
	require.True(t, ok)
	assert.Equal(t, int32(2), handle)

	assert.Equal(t, 2, r.size())
}

// TestRegistry_LookupMiss tests unknown handles and paths
func TestRegistry_LookupMiss(t *testing.T) {
	r := newWatchRegistry()

	_, ok := r.lookup(99)
	assert.False(t, ok)
	_, ok = r.handleFor("/nowhere")
	assert.False(t, ok)
}

// TestRegistry_RemoveHandle tests eviction of both sides of the mapping
func TestRegistry_RemoveHandle(t *testing.T) {
	r := newWatchRegistry()
	r.add(7, "/w/x")

	path, ok := r.removeHandle(7)
	require.True(t, ok)
	assert.Equal(t, "/w/x", path)

	_, ok = r.lookup(7)
	assert.False(t, ok)
	_, ok = r.handleFor("/w/x")
	assert.False(t, ok)
	assert.Equal(t, 0, r.size())

	// Removing again is a no-op
	_, ok = r.removeHandle(7)
	assert.False(t, ok)
}

// TestRegistry_RewatchSamePath tests that a path re-watched under a new
// handle never keeps two live handles
func TestRegistry_RewatchSamePath(t *testing.T) {
	r := newWatchRegistry()
	r.add(1, "/w/a")
	r.add(2, "/w/a")

	handle, ok := r.handleFor("/w/a")
	require.True(t, ok)
	assert.Equal(t, int32(2), handle)

	_, ok = r.lookup(1)
	assert.False(t, ok, "the stale handle must be evicted")
	assert.Equal(t, 1, r.size())
}

// TestRegistry_ReusedHandle tests that the kernel reusing a handle for a new
// path evicts the old path mapping
func TestRegistry_ReusedHandle(t *testing.T) {
	r := newWatchRegistry()
	r.add(3, "/w/old")
	r.add(3, "/w/new")

	path, ok := r.lookup(3)
	require.True(t, ok)
	assert.Equal(t, "/w/new", path)

	_, ok = r.handleFor("/w/old")
	assert.False(t, ok)
	assert.Equal(t, 1, r.size())
}

// TestRegistry_Paths tests the watched-path snapshot
func TestRegistry_Paths(t *testing.T) {
	r := newWatchRegistry()
	r.add(1, "/w")
	r.add(2, "/w/a")

	paths := r.paths()
	assert.ElementsMatch(t, []string{"/w", "/w/a"}, paths)
}
