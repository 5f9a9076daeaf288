//go:build !linux

package injection

import (
	"os"
	"time"
)

// newestTimestamp falls back to plain mtime where inode-change time is not
// portably available.
func newestTimestamp(info os.FileInfo) time.Time {
	return info.ModTime()
}
