//go:build linux

package injection

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// inotifyBackend is the Linux tree watcher: a single-threaded loop over the
// notification source, decoder and watch registry. Nothing else touches the
// registry while the loop runs, so each cycle sees a consistent watch set.
type inotifyBackend struct {
	w      *watcher
	source *notifySource
	reg    *watchRegistry
}

// newBackend wires the inotify source to a fresh registry
func newBackend(w *watcher) (backend, error) {
	source, err := newNotifySource(w.bufferSize)
	if err != nil {
		return nil, err
	}
	return &inotifyBackend{
		w:      w,
		source: source,
		reg:    newWatchRegistry(),
	}, nil
}

// watched returns the directories currently under watch
func (b *inotifyBackend) watched() []string { return b.reg.paths() }

// count returns the number of live watches
func (b *inotifyBackend) count() int { return b.reg.size() }

// run seeds the watch set, then cycles wait -> drain -> decode -> apply
// until the context is canceled. The source is released exactly once here,
// whatever the exit path.
func (b *inotifyBackend) run(ctx context.Context) error {
	defer b.source.close()

	b.seed()
	b.w.signalReady()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		ready, err := b.source.waitReady(b.w.pollTimeout)
		if err != nil {
			b.w.logError("Notification wait failed: %v", err)
			return err
		}
		if !ready {
			// Timeout with no data, the normal idle case
			continue
		}

		raw, err := b.source.drainRaw()
		if err != nil {
			b.w.logError("Notification drain failed: %v", err)
			return err
		}
		if len(raw) == 0 {
			continue
		}

		changed := b.processRecords(decodeRecords(raw))
		if len(changed) > 0 {
			b.w.dispatchChanged(changed)
		}
	}
}

// seed installs a watch on every directory reachable from the root that
// survives the exclusion set. Per-directory failures are logged and skipped.
func (b *inotifyBackend) seed() {
	skipped := walkTree(b.w.root, b.w.exclusions, func(dir string) {
		b.installWatch(dir)
	}, nil)
	for _, s := range skipped {
		b.w.logDebug("Seed skipped subtree %s: %v", s.path, s.err)
	}
	b.w.logInfo("Seeded %d directory watches under %s", b.reg.size(), b.w.root)
}

// installWatch adds a watch for one directory, no-op when already watched.
// Install failures are transient (the directory may have vanished between
// discovery and install); that directory simply goes unwatched.
func (b *inotifyBackend) installWatch(dir string) {
	if _, ok := b.reg.handleFor(dir); ok {
		return
	}
	wd, err := b.source.addWatch(dir)
	if err != nil {
		b.w.logWarn("Cannot watch %s: %v", dir, err)
		return
	}
	b.reg.add(wd, dir)
	b.w.stats.watchesInstalled.Add(1)
	b.w.logDebug("Watching: %s", dir)
}

// processRecords interprets one cycle's records in decode order, returning
// the implicated file paths with intra-cycle duplicates removed
func (b *inotifyBackend) processRecords(records []rawRecord) []string {
	var changed []string
	seen := make(map[string]struct{})
	now := time.Now()

	for _, rec := range records {
		b.w.stats.eventsDecoded.Add(1)
		for _, path := range b.applyRecord(rec, now) {
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			changed = append(changed, path)
		}
	}
	return changed
}

// applyRecord resolves one record against the registry, maintains the watch
// set and returns any file paths the record implicates
func (b *inotifyBackend) applyRecord(rec rawRecord, now time.Time) []string {
	if rec.Mask&unix.IN_Q_OVERFLOW != 0 {
		// The kernel dropped records. The marker check makes a missed
		// change safe to reprocess whenever it is seen again.
		b.w.stats.overflows.Add(1)
		b.w.logWarn("Kernel event queue overflowed, changes may have been missed")
		return nil
	}

	dir, ok := b.reg.lookup(rec.WD)
	if !ok {
		// Stale record for an already-evicted watch
		return nil
	}

	path := dir
	if rec.Name != "" {
		path = filepath.Join(dir, rec.Name)
	}

	if b.w.severity >= SeverityDebug {
		ev := ChangeEvent{Path: path, IsDir: rec.isDir(), Kinds: rec.kinds(), Cookie: rec.Cookie, Time: now}
		b.w.logDebug("Decoded %s", ev.String())
	}

	if rec.Mask&unix.IN_IGNORED != 0 {
		if removed, ok := b.reg.removeHandle(rec.WD); ok {
			b.w.stats.watchesRemoved.Add(1)
			b.w.logDebug("Watch invalidated: %s", removed)
		}
		return nil
	}

	if rec.Mask&unix.IN_DELETE_SELF != 0 {
		if removed, ok := b.reg.removeHandle(rec.WD); ok {
			b.w.stats.watchesRemoved.Add(1)
			b.w.logDebug("Watched directory gone: %s", removed)
		}
		return nil
	}

	if rec.Mask&unix.IN_MOVE_SELF != 0 {
		// A rename within the tree re-registers this handle under its new
		// path before this record is reached (the destination's moved-to
		// record precedes it in the stream). The mapping is current when
		// that path still exists, so the watch stays.
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			b.w.logDebug("Watched directory renamed in place: %s", dir)
			return nil
		}
		// Moved out of the tree: the kernel keeps the watch alive on the
		// inode, so it must be released explicitly.
		b.source.removeWatch(rec.WD)
		if removed, ok := b.reg.removeHandle(rec.WD); ok {
			b.w.stats.watchesRemoved.Add(1)
			b.w.logDebug("Watched directory moved away: %s", removed)
		}
		return nil
	}

	if rec.isDir() {
		if b.w.exclusions.SkipDir(rec.Name) {
			return nil
		}
		if rec.Mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0 {
			return b.watchNewSubtree(path)
		}
		return nil
	}

	if rec.Mask&(unix.IN_CREATE|unix.IN_MOVED_TO|unix.IN_MODIFY|unix.IN_CLOSE_WRITE|unix.IN_ATTRIB) != 0 {
		return []string{path}
	}
	return nil
}

// watchNewSubtree closes the race between a directory appearing and its
// watch existing: the directory is watched before its children are listed,
// and every file already inside is treated as freshly changed. A directory
// moved in with pre-existing content is therefore fully picked up within the
// cycle that observed its creation.
func (b *inotifyBackend) watchNewSubtree(dir string) []string {
	var files []string
	skipped := walkTree(dir, b.w.exclusions, func(d string) {
		b.installWatch(d)
	}, func(f string) {
		files = append(files, f)
	})
	for _, s := range skipped {
		b.w.logDebug("New subtree listing failed %s: %v", s.path, s.err)
	}
	return files
}
