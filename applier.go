package injection

import (
	"bytes"
	"os"
	"path/filepath"
)

// Outcome is the result of one apply attempt
type Outcome int

// Apply outcomes
const (
	OutcomeApplied Outcome = iota
	OutcomeAlreadyMarked
	OutcomeUnsupported
	OutcomeReadFailed
	OutcomeWriteFailed
)

// outcomeNames maps Outcome to its string representation
var outcomeNames = [...]string{"Applied", "AlreadyMarked", "Unsupported", "ReadFailed", "WriteFailed"}

// String returns the string representation of an Outcome
func (o Outcome) String() string {
	if o < OutcomeApplied || o > OutcomeWriteFailed {
		return "Invalid"
	}
	return outcomeNames[o]
}

// Applier transforms one file per confirmed change. Implementations must be
// idempotent (calling Apply twice on the same file leaves it as after the
// first call) and must never leave a partially written file behind.
type Applier interface {
	Apply(path string) (Outcome, error)
}

// markerScanWindow bounds how much of the file head is searched for the
// marker, matching the snippet placement at the very start of the file.
const markerScanWindow = 2048

// stagingSuffix is appended to the target name while the replacement is
// being written.
const stagingSuffix = ".tmp_inject"

// SnippetApplier prepends a per-extension snippet to files that do not yet
// carry the marker. The replacement is staged in a sibling file, synced and
// renamed over the original, so a failure at any point leaves the original
// bytes intact.
type SnippetApplier struct {
	Snippets map[string]string // Extension -> snippet to prepend
	Marker   string            // Sentinel detected in the file head
	Backup   bool              // Write a .bak sibling before the first injection
	DryRun   bool              // Report outcomes without writing
}

// NewSnippetApplier creates an applier with the default snippet table
func NewSnippetApplier() *SnippetApplier {
	return &SnippetApplier{
		Snippets: DefaultSnippets(),
		Marker:   DefaultMarker,
	}
}

// Extensions returns the file extensions this applier can transform
func (a *SnippetApplier) Extensions() []string {
	return SnippetExtensions(a.Snippets)
}

// Apply performs the marker-checked, atomic prepend transformation
func (a *SnippetApplier) Apply(path string) (Outcome, error) {
	snippet, ok := a.Snippets[filepath.Ext(path)]
	if !ok {
		return OutcomeUnsupported, nil
	}

	original, err := os.ReadFile(path)
	if err != nil {
		return OutcomeReadFailed, newError("read", path, err)
	}

	head := original
	if len(head) > markerScanWindow {
		head = head[:markerScanWindow]
	}
	if bytes.Contains(head, []byte(a.Marker)) {
		return OutcomeAlreadyMarked, nil
	}

	if a.DryRun {
		return OutcomeApplied, nil
	}

	if a.Backup {
		if err := a.writeBackup(path, original); err != nil {
			return OutcomeWriteFailed, newError("backup", path, err)
		}
	}

	injected := make([]byte, 0, len(snippet)+len(original))
	injected = append(injected, snippet...)
	injected = append(injected, original...)

	if err := atomicReplace(path, injected); err != nil {
		return OutcomeWriteFailed, newError("write", path, err)
	}
	return OutcomeApplied, nil
}

// writeBackup stores the pristine content next to the file. An existing
// backup is never overwritten, so it always holds the pre-injection bytes.
func (a *SnippetApplier) writeBackup(path string, original []byte) error {
	backup := path + ".bak"
	if _, err := os.Stat(backup); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(backup, original, 0644)
}

// atomicReplace writes content to a staging sibling, syncs it to disk and
// renames it over the target. The target's mode is preserved when it can be
// read.
func atomicReplace(path string, content []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	staging := path + stagingSuffix
	f, err := os.OpenFile(staging, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(staging)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(staging)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(staging)
		return err
	}

	if err := os.Rename(staging, path); err != nil {
		os.Remove(staging)
		return err
	}
	return nil
}
