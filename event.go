package injection

import (
	"fmt"
	"strings"
	"time"
)

// EventKind classifies what happened to a watched path
type EventKind uint32

// Semantic event kinds decoded from the kernel stream
const (
	KindUnknown EventKind = iota
	KindCreated
	KindModified
	KindRenamedIn
	KindAttrib
	KindSelfDeleted
	KindSelfMoved
	KindOverflow
	KindInvalidated
)

// kindNames maps EventKind to its string representation
var kindNames = [...]string{
	"Unknown", "Created", "Modified", "RenamedIn", "Attrib",
	"SelfDeleted", "SelfMoved", "Overflow", "Invalidated",
}

// String returns the string representation of an EventKind
func (k EventKind) String() string {
	if k > KindInvalidated {
		return "Invalid"
	}
	return kindNames[k]
}

// ChangeEvent is the decoded, per-path form of one kernel record
type ChangeEvent struct {
	Path   string      // Affected file or directory
	IsDir  bool        // Directory bit from the kernel record
	Kinds  []EventKind // All kinds present in the record's mask
	Cookie uint32      // Kernel rename cookie, zero otherwise
	Time   time.Time   // Time the record was drained
}

// String returns a formatted string representation of a ChangeEvent
func (ev ChangeEvent) String() string {
	var kindStrings []string
	for _, k := range ev.Kinds {
		kindStrings = append(kindStrings, k.String())
	}
	return fmt.Sprintf("Event{Path: %q, Dir: %t, Kinds: [%s], Cookie: %d}",
		ev.Path, ev.IsDir, strings.Join(kindStrings, ", "), ev.Cookie)
}

// Has reports whether the event carries the given kind
func (ev ChangeEvent) Has(kind EventKind) bool {
	for _, k := range ev.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// uniqueKinds removes duplicate EventKind values from a slice
func uniqueKinds(s []EventKind) []EventKind {
	if len(s) < 2 {
		return s
	}

	const maxKind = KindInvalidated + 1
	var seen [maxKind]bool

	j := 0
	for _, v := range s {
		if v < maxKind && !seen[v] {
			seen[v] = true
			s[j] = v
			j++
		}
	}
	return s[:j]
}
