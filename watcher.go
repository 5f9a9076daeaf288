package injection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Default values for watcher config
const (
	DefaultPollTimeout = 500 * time.Millisecond
	DefaultBufferSize  = 64 * 1024
	DefaultCooldown    = 2 * time.Second
)

// Limits and validation constants
const (
	MinPollTimeout = 10 * time.Millisecond
	MaxPollTimeout = 30 * time.Second
	MaxBufferSize  = 256 * 1024
	MaxCooldown    = 10 * time.Minute
)

// Stats holds runtime statistics
type Stats struct {
	StartTime        time.Time     // StartTime is when the watcher was created
	Uptime           time.Duration // Uptime is the duration the watcher has been running
	WatchesActive    int           // WatchesActive is the number of live directory watches
	WatchesInstalled int64         // WatchesInstalled counts watches added over the lifetime
	WatchesRemoved   int64         // WatchesRemoved counts watches evicted after invalidation
	EventsDecoded    int64         // EventsDecoded counts raw records decoded from the kernel
	Overflows        int64         // Overflows counts kernel queue overflow records observed
	FilesApplied     int64         // FilesApplied counts successful injections
	FilesMarked      int64         // FilesMarked counts files already carrying the marker
	FilesFailed      int64         // FilesFailed counts read/write failures during injection
	FilesSuppressed  int64         // FilesSuppressed counts applies skipped by the cooldown
}

// watcherStats holds internal, mutable statistics
type watcherStats struct {
	startTime        time.Time
	watchesInstalled atomic.Int64
	watchesRemoved   atomic.Int64
	eventsDecoded    atomic.Int64
	overflows        atomic.Int64
	filesApplied     atomic.Int64
	filesMarked      atomic.Int64
	filesFailed      atomic.Int64
	filesSuppressed  atomic.Int64
}

// backend abstracts the platform notification mechanism behind the watcher
type backend interface {
	// run seeds the watch set and loops until the context is canceled;
	// it returns a non-nil error only on unrecoverable source failure
	run(ctx context.Context) error
	// watched returns the directories currently under watch
	watched() []string
	// count returns the number of live watches
	count() int
}

// watcher implements the Watcher interface
type watcher struct {
	// Atomic fields
	stats watcherStats

	// Atomic booleans
	isRunning atomic.Bool
	closed    atomic.Bool

	// Configuration fields
	init           error
	root           string
	actionDir      string
	pollTimeout    time.Duration
	bufferSize     int
	cooldownWindow time.Duration
	severity       LogSeverity
	extraExcludes  []string
	ignoreGlobs    []string
	extensionList  []string

	// Components
	exclusions *Exclusions
	filter     PathFilter
	cooldown   *Cooldown
	extensions map[string]struct{}
	applier    Applier
	backend    backend

	// Channels
	done      chan struct{}
	readyChan chan struct{}
	readyOnce sync.Once

	// Synchronization and logs
	logMu   sync.Mutex
	logFile *os.File
	logger  *log.Logger
}

// Watcher defines the public interface for the tree watcher
type Watcher interface {
	// Run seeds the watch set, then loops until the context is canceled or
	// Close is called; it blocks for the watcher's lifetime
	Run(ctx context.Context) error
	// Paths returns a slice of the directories currently being watched
	Paths() []string
	// Stats returns the current watcher statistics
	Stats() Stats
	// Close requests a graceful shutdown
	Close()
}

// New creates a watcher rooted at root. Construction fails when the root is
// not a directory or the OS notification subsystem cannot be initialized;
// there is no fallback, callers must report and exit.
func New(root string, options ...Option) (Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, newError("validateRoot", root, err)
	}
	if !info.IsDir() {
		return nil, newError("validateRoot", root, errors.New("root is not a directory"))
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, newError("validateRoot", root, err)
	}

	// Create a watcher with default values
	w := &watcher{
		root:           absRoot,
		pollTimeout:    DefaultPollTimeout,
		bufferSize:     DefaultBufferSize,
		cooldownWindow: DefaultCooldown,
		severity:       SeverityWarn,
		done:           make(chan struct{}),
	}

	// Apply user-provided options
	for _, opt := range options {
		if opt != nil {
			opt(w)
		}
	}

	// Check for any initialization errors from options
	if w.init != nil {
		return nil, w.init
	}

	if err := w.validateConfig(); err != nil {
		return nil, newError("config", w.root, err)
	}

	w.exclusions = NewExclusions(w.extraExcludes...)

	gf, err := newGlobFilter(w.ignoreGlobs)
	if err != nil {
		return nil, err
	}
	if gf != nil {
		w.filter = gf
	}

	w.cooldown = NewCooldown(w.cooldownWindow)

	if w.applier == nil {
		w.applier = NewSnippetApplier()
	}
	// Default the qualifying extensions to what the applier can handle
	if len(w.extensionList) == 0 {
		if sa, ok := w.applier.(*SnippetApplier); ok {
			w.extensionList = sa.Extensions()
		}
	}
	w.extensions = make(map[string]struct{}, len(w.extensionList))
	for _, ext := range w.extensionList {
		w.extensions[ext] = struct{}{}
	}

	if w.actionDir != "" {
		absAction, err := filepath.Abs(w.actionDir)
		if err != nil {
			return nil, newError("validateActionDir", w.actionDir, err)
		}
		w.actionDir = absAction
	}

	// The backend owns the notification resource for the watcher's lifetime
	b, err := newBackend(w)
	if err != nil {
		return nil, err
	}
	w.backend = b

	w.stats.startTime = time.Now()
	return w, nil
}

// Run starts the seed-then-poll loop and blocks until shutdown
func (w *watcher) Run(ctx context.Context) error {
	if !w.isRunning.CompareAndSwap(false, true) {
		return newError("start", w.root, errors.New("watcher is already running"))
	}
	defer w.isRunning.Store(false)

	if w.severity >= SeverityDebug {
		w.logDebug("Watcher configuration:")
		w.logDebug("  - Root: %s", w.root)
		w.logDebug("  - ActionDir: %s", w.actionDir)
		w.logDebug("  - PollTimeout: %v", w.pollTimeout)
		w.logDebug("  - BufferSize: %d", w.bufferSize)
		w.logDebug("  - Cooldown: %v", w.cooldownWindow)
		w.logDebug("  - Extensions: %v", w.extensionList)
		w.logDebug("  - Excluded: %v", w.exclusions.Names())
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-w.done:
		case <-runCtx.Done():
		}
		cancel()
	}()

	err := w.backend.run(runCtx)

	w.logInfo("Watcher shutting down...")
	if w.logFile != nil {
		if closeErr := w.logFile.Close(); closeErr != nil {
			log.Printf("injection: error closing log file: %v", closeErr)
		}
		w.logFile = nil
		w.logger = nil
	}
	return err
}

// Paths returns the directories currently being watched
func (w *watcher) Paths() []string {
	return w.backend.watched()
}

// Stats returns the current watcher statistics
func (w *watcher) Stats() Stats {
	stats := Stats{
		StartTime:        w.stats.startTime,
		WatchesActive:    w.backend.count(),
		WatchesInstalled: w.stats.watchesInstalled.Load(),
		WatchesRemoved:   w.stats.watchesRemoved.Load(),
		EventsDecoded:    w.stats.eventsDecoded.Load(),
		Overflows:        w.stats.overflows.Load(),
		FilesApplied:     w.stats.filesApplied.Load(),
		FilesMarked:      w.stats.filesMarked.Load(),
		FilesFailed:      w.stats.filesFailed.Load(),
		FilesSuppressed:  w.stats.filesSuppressed.Load(),
	}
	stats.Uptime = time.Since(stats.StartTime)
	return stats
}

// Close requests a graceful shutdown; the in-flight cycle runs to completion
func (w *watcher) Close() {
	if w.closed.CompareAndSwap(false, true) {
		w.logInfo("Close called, initiating shutdown...")
		close(w.done)
	}
}

// validateConfig checks if the watcher configuration is valid
func (w *watcher) validateConfig() error {
	if w.bufferSize <= 0 || w.bufferSize > MaxBufferSize {
		return fmt.Errorf("buffer size must be between 1 and %d", MaxBufferSize)
	}
	if w.pollTimeout < MinPollTimeout || w.pollTimeout > MaxPollTimeout {
		return fmt.Errorf("poll timeout must be between %v and %v", MinPollTimeout, MaxPollTimeout)
	}
	if w.cooldownWindow < 0 || w.cooldownWindow > MaxCooldown {
		return fmt.Errorf("cooldown must be between 0 and %v", MaxCooldown)
	}
	return nil
}

// signalReady closes the ready channel once the initial seed has completed
func (w *watcher) signalReady() {
	w.readyOnce.Do(func() {
		if w.readyChan != nil {
			close(w.readyChan)
		}
	})
}

// eligible decides whether a changed file may reach the applier
func (w *watcher) eligible(path string) bool {
	if isSystemFile(path) {
		return false
	}
	if len(w.extensions) > 0 {
		if _, ok := w.extensions[filepath.Ext(path)]; !ok {
			return false
		}
	}
	if w.actionDir != "" && !isSubpath(w.actionDir, path) {
		return false
	}
	if w.filter != nil && !w.filter.ShouldInclude(path) {
		return false
	}
	return true
}

// dispatchChanged runs one cycle's implicated files through the applier,
// sequentially and in decode order, logging one line per outcome
func (w *watcher) dispatchChanged(paths []string) {
	now := time.Now()
	for _, path := range paths {
		if !w.eligible(path) {
			w.logDebug("Filtered: %s", path)
			continue
		}
		if !w.cooldown.Allow(path, now) {
			w.stats.filesSuppressed.Add(1)
			w.logDebug("Cooldown suppressed: %s", path)
			continue
		}

		outcome, err := w.applier.Apply(path)
		switch outcome {
		case OutcomeApplied:
			w.stats.filesApplied.Add(1)
			w.logInfo("Applied: %s", path)
		case OutcomeAlreadyMarked:
			w.stats.filesMarked.Add(1)
			w.logInfo("AlreadyMarked: %s", path)
		case OutcomeUnsupported:
			w.logDebug("Unsupported: %s", path)
		default:
			w.stats.filesFailed.Add(1)
			w.logError("%s: %s: %v", outcome, path, err)
		}
	}
}
