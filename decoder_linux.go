//go:build linux

package injection

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// Byte offsets of the fixed inotify record header fields
const (
	offsetWd     = 0
	offsetMask   = 4
	offsetCookie = 8
	offsetLen    = 12
)

// rawRecord is one record from the kernel's inotify stream: the fixed header
// plus the NUL-trimmed name that follows it
type rawRecord struct {
	WD     int32  // Watch descriptor the record belongs to
	Mask   uint32 // Full flag bits, preserved for the orchestrator
	Cookie uint32 // Rename correlation cookie
	Name   string // Child name relative to the watched directory, if any
}

// isDir reports whether the record's subject is a directory
func (r rawRecord) isDir() bool {
	return r.Mask&unix.IN_ISDIR != 0
}

// kinds maps the record's mask to its semantic event kinds. Several bits may
// be set at once, so the result is a slice, not a single kind.
func (r rawRecord) kinds() []EventKind {
	var kinds []EventKind
	if r.Mask&unix.IN_Q_OVERFLOW != 0 {
		kinds = append(kinds, KindOverflow)
	}
	if r.Mask&unix.IN_IGNORED != 0 {
		kinds = append(kinds, KindInvalidated)
	}
	if r.Mask&unix.IN_CREATE != 0 {
		kinds = append(kinds, KindCreated)
	}
	if r.Mask&unix.IN_MOVED_TO != 0 {
		kinds = append(kinds, KindRenamedIn)
	}
	if r.Mask&(unix.IN_MODIFY|unix.IN_CLOSE_WRITE) != 0 {
		kinds = append(kinds, KindModified)
	}
	if r.Mask&unix.IN_ATTRIB != 0 {
		kinds = append(kinds, KindAttrib)
	}
	if r.Mask&unix.IN_DELETE_SELF != 0 {
		kinds = append(kinds, KindSelfDeleted)
	}
	if r.Mask&unix.IN_MOVE_SELF != 0 {
		kinds = append(kinds, KindSelfMoved)
	}
	return uniqueKinds(kinds)
}

// decodeRecords parses a drained buffer into its records. Every field read
// is bounds-checked: a tail shorter than a header, or a name field running
// past the buffer, ends decoding and the remainder is discarded.
func decodeRecords(buf []byte) []rawRecord {
	var records []rawRecord

	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buf) {
		header := buf[offset:]
		wd := int32(binary.NativeEndian.Uint32(header[offsetWd:]))
		mask := binary.NativeEndian.Uint32(header[offsetMask:])
		cookie := binary.NativeEndian.Uint32(header[offsetCookie:])
		nameLen := int(binary.NativeEndian.Uint32(header[offsetLen:]))
		offset += unix.SizeofInotifyEvent

		var name string
		if nameLen > 0 {
			if offset+nameLen > len(buf) {
				// Truncated name field; drop the partial record
				break
			}
			nameBytes := buf[offset : offset+nameLen]
			// The name is padded with NULs up to nameLen
			if i := bytes.IndexByte(nameBytes, 0); i >= 0 {
				nameBytes = nameBytes[:i]
			}
			name = string(nameBytes)
			offset += nameLen
		}

		records = append(records, rawRecord{
			WD:     wd,
			Mask:   mask,
			Cookie: cookie,
			Name:   name,
		})
	}
	return records
}
