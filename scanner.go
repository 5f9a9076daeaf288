package injection

import (
	"os"
	"path/filepath"
	"time"
)

// Scanner is the stat-based fallback to the notification watcher: a full
// walk that picks up files created or modified within a recency window.
// Used for one-shot runs and as the polling mode on hosts where the
// notification subsystem is unavailable or distrusted.
type Scanner struct {
	Root       string
	Window     time.Duration
	Exclusions *Exclusions
	Extensions map[string]struct{}
}

// NewScanner creates a scanner rooted at root. The extension set limits
// which files are reported; an empty set reports every regular file.
func NewScanner(root string, window time.Duration, excl *Exclusions, extensions []string) *Scanner {
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[e] = struct{}{}
	}
	if excl == nil {
		excl = NewExclusions()
	}
	return &Scanner{
		Root:       root,
		Window:     window,
		Exclusions: excl,
		Extensions: exts,
	}
}

// Scan walks the tree once and returns the qualifying files whose newest
// timestamp (the later of modification and inode-change time) falls within
// the window. Stat failures skip the file; listing failures skip the
// subtree.
func (s *Scanner) Scan(now time.Time) []string {
	var recent []string
	walkTree(s.Root, s.Exclusions, nil, func(path string) {
		if !s.qualifies(path) {
			return
		}
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if now.Sub(newestTimestamp(info)) <= s.Window {
			recent = append(recent, path)
		}
	})
	return recent
}

func (s *Scanner) qualifies(path string) bool {
	if isSystemFile(path) {
		return false
	}
	if len(s.Extensions) == 0 {
		return true
	}
	_, ok := s.Extensions[filepath.Ext(path)]
	return ok
}
