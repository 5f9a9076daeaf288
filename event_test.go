package injection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestEventKind_String tests kind names
func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "Created", KindCreated.String())
	assert.Equal(t, "Invalidated", KindInvalidated.String())
	assert.Equal(t, "Overflow", KindOverflow.String())
	assert.Equal(t, "Invalid", EventKind(99).String())
}

// TestChangeEvent_Has tests kind membership
func TestChangeEvent_Has(t *testing.T) {
	ev := ChangeEvent{
		Path:  "/w/a.py",
		Kinds: []EventKind{KindCreated, KindModified},
		Time:  time.Now(),
	}

	assert.True(t, ev.Has(KindCreated))
	assert.True(t, ev.Has(KindModified))
	assert.False(t, ev.Has(KindSelfDeleted))
}

// TestChangeEvent_String tests the formatted representation
func TestChangeEvent_String(t *testing.T) {
	ev := ChangeEvent{
		Path:   "/w/a",
		IsDir:  true,
		Kinds:  []EventKind{KindCreated},
		Cookie: 7,
	}

	s := ev.String()
	assert.Contains(t, s, `"/w/a"`)
	assert.Contains(t, s, "Created")
	assert.Contains(t, s, "Dir: true")
	assert.Contains(t, s, "Cookie: 7")
}

// TestUniqueKinds tests duplicate removal and invalid filtering
func TestUniqueKinds(t *testing.T) {
	in := []EventKind{KindCreated, KindModified, KindCreated, EventKind(200), KindModified}
	out := uniqueKinds(in)
	assert.Equal(t, []EventKind{KindCreated, KindModified}, out)

	assert.Empty(t, uniqueKinds(nil))
	assert.Equal(t, []EventKind{KindCreated}, uniqueKinds([]EventKind{KindCreated}))
}
