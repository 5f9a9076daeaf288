//go:build !linux

package injection

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// fsnotifyBackend serves the Watcher surface on platforms without the raw
// inotify source. fsnotify watches are per-directory and non-recursive, so
// the same dynamic watch-set maintenance applies: seed the tree, then add
// watches for directories as they appear.
type fsnotifyBackend struct {
	w    *watcher
	fs   *fsnotify.Watcher
	dirs map[string]struct{}
	mu   sync.RWMutex
}

// newBackend initializes the portable backend
func newBackend(w *watcher) (backend, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, newError("fsnotifyInit", "", err)
	}
	return &fsnotifyBackend{
		w:    w,
		fs:   fs,
		dirs: make(map[string]struct{}),
	}, nil
}

// watched returns the directories currently under watch
func (b *fsnotifyBackend) watched() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, len(b.dirs))
	for d := range b.dirs {
		out = append(out, d)
	}
	return out
}

// count returns the number of live watches
func (b *fsnotifyBackend) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.dirs)
}

// run seeds the watch set and consumes fsnotify events until the context is
// canceled
func (b *fsnotifyBackend) run(ctx context.Context) error {
	defer b.fs.Close()

	b.seed()
	b.w.signalReady()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-b.fs.Events:
			if !ok {
				return nil
			}
			b.handleEvent(ev)
		case err, ok := <-b.fs.Errors:
			if !ok {
				return nil
			}
			b.w.logWarn("Watcher error: %v", err)
		}
	}
}

// seed installs a watch on every non-excluded directory under the root
func (b *fsnotifyBackend) seed() {
	skipped := walkTree(b.w.root, b.w.exclusions, func(dir string) {
		b.installWatch(dir)
	}, nil)
	for _, s := range skipped {
		b.w.logDebug("Seed skipped subtree %s: %v", s.path, s.err)
	}
	b.w.logInfo("Seeded %d directory watches under %s", b.count(), b.w.root)
}

// installWatch adds one directory watch, no-op when already watched
func (b *fsnotifyBackend) installWatch(dir string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.dirs[dir]; ok {
		return
	}
	if err := b.fs.Add(dir); err != nil {
		b.w.logWarn("Cannot watch %s: %v", dir, err)
		return
	}
	b.dirs[dir] = struct{}{}
	b.w.stats.watchesInstalled.Add(1)
	b.w.logDebug("Watching: %s", dir)
}

// evictSubtree drops the watch entry for a removed or renamed directory and
// every watched descendant under it; the descendants produce no removal
// events of their own once their parent is gone
func (b *fsnotifyBackend) evictSubtree(dir string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for d := range b.dirs {
		if d != dir && !isSubpath(dir, d) {
			continue
		}
		delete(b.dirs, d)
		_ = b.fs.Remove(d)
		b.w.stats.watchesRemoved.Add(1)
		b.w.logDebug("Watch invalidated: %s", d)
	}
}

// handleEvent routes one fsnotify event: new directories extend the watch
// set (including any files already inside them), file-level changes go to
// the applier
func (b *fsnotifyBackend) handleEvent(ev fsnotify.Event) {
	b.w.stats.eventsDecoded.Add(1)

	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		b.evictSubtree(ev.Name)
		return
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if b.w.exclusions.SkipDir(filepath.Base(ev.Name)) {
				return
			}
			var files []string
			walkTree(ev.Name, b.w.exclusions, func(d string) {
				b.installWatch(d)
			}, func(f string) {
				files = append(files, f)
			})
			if len(files) > 0 {
				b.w.dispatchChanged(files)
			}
			return
		}
	}

	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Chmod) != 0 {
		b.w.dispatchChanged([]string{ev.Name})
	}
}
