package injection

import "fmt"

// WatchError is a structured error for watcher-related failures
type WatchError struct {
	Op   string
	Path string
	Err  error
}

// newError creates a new WatchError
func newError(op, path string, err error) *WatchError {
	return &WatchError{Op: op, Path: path, Err: err}
}

// Error returns a formatted error string
func (e *WatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("injection %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("injection %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining
func (e *WatchError) Unwrap() error {
	return e.Err
}
