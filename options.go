package injection

import (
	"log"
	"os"
	"time"
)

// Option is a function that configures a watcher instance
type Option func(*watcher)

// WithPollTimeout bounds the blocking wait on the notification source so the
// loop stays responsive to shutdown requests
func WithPollTimeout(d time.Duration) Option {
	return func(w *watcher) {
		w.pollTimeout = d
	}
}

// WithBufferSize sets the size of the raw read buffer
func WithBufferSize(size int) Option {
	return func(w *watcher) {
		w.bufferSize = size
	}
}

// WithCooldown sets the per-path suppression window; repeated changes to the
// same file within it are applied only once
func WithCooldown(d time.Duration) Option {
	return func(w *watcher) {
		w.cooldownWindow = d
	}
}

// WithExclusions adds directory names to skip, on top of the built-in set
func WithExclusions(names ...string) Option {
	return func(w *watcher) {
		w.extraExcludes = append(w.extraExcludes, names...)
	}
}

// WithIgnoreGlobs sets glob patterns for files the applier must never touch
func WithIgnoreGlobs(patterns ...string) Option {
	return func(w *watcher) {
		w.ignoreGlobs = append(w.ignoreGlobs, patterns...)
	}
}

// WithExtensions limits which file extensions qualify for the applier; the
// default is whatever the applier's snippet table covers
func WithExtensions(exts ...string) Option {
	return func(w *watcher) {
		w.extensionList = append(w.extensionList, exts...)
	}
}

// WithActionDir narrows the applier's scope: the whole root tree stays
// watched, but only files under this directory are transformed
func WithActionDir(path string) Option {
	return func(w *watcher) {
		w.actionDir = path
	}
}

// WithApplier sets the change applier invoked per confirmed change
func WithApplier(a Applier) Option {
	return func(w *watcher) {
		w.applier = a
	}
}

// WithSeverity sets the logging verbosity (default is SeverityWarn)
func WithSeverity(level LogSeverity) Option {
	return func(w *watcher) {
		w.severity = level
	}
}

// WithReadyChannel provides a channel that is closed when the initial seed
// has completed
func WithReadyChannel(ready chan struct{}) Option {
	return func(w *watcher) {
		w.readyChan = ready
	}
}

// WithLogFile sets a file for logging; if the path is empty, logging goes to
// stdout/stderr; if "stdout", logs explicitly to standard output
func WithLogFile(path string) Option {
	return func(w *watcher) {
		if path == "" {
			w.logger = nil
			w.logFile = nil
			return
		}
		if path == "stdout" {
			w.logger = log.New(os.Stdout, "", 0)
			return
		}
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			w.init = newError("openLogFile", path, err)
			return
		}
		w.logFile = file
		w.logger = log.New(file, "", 0)
	}
}
