//go:build linux

package injection

import (
	"os"
	"syscall"
	"time"
)

// newestTimestamp approximates "created or modified": ctime is inode-change
// time, not creation time, so the later of mtime and ctime is used.
func newestTimestamp(info os.FileInfo) time.Time {
	mtime := info.ModTime()
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		ctime := time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
		if ctime.After(mtime) {
			return ctime
		}
	}
	return mtime
}
