package injection

import "sort"

// builtinExcludes holds directory names that are never watched or descended
// into: version-control metadata, dependency trees, build output and caches.
var builtinExcludes = []string{
	".git", ".svn", ".hg", ".bzr",
	"node_modules", "vendor", "__pycache__",
	".venv", "venv", ".tox",
	".cache", ".mypy_cache", ".pytest_cache",
	"build", "dist", "target", "CMakeFiles",
	".idea", ".vscode",
}

// Exclusions decides whether a directory name should be skipped. The set is
// fixed at construction: built-in defaults unioned with caller-supplied names.
type Exclusions struct {
	names map[string]struct{}
}

// NewExclusions builds an exclusion set from the built-in defaults plus any
// extra directory names
func NewExclusions(extra ...string) *Exclusions {
	names := make(map[string]struct{}, len(builtinExcludes)+len(extra))
	for _, n := range builtinExcludes {
		names[n] = struct{}{}
	}
	for _, n := range extra {
		if n != "" {
			names[n] = struct{}{}
		}
	}
	return &Exclusions{names: names}
}

// SkipDir reports whether a directory with the given name should be skipped.
// The match is exact and case-sensitive; it applies to names, not paths.
func (e *Exclusions) SkipDir(name string) bool {
	_, ok := e.names[name]
	return ok
}

// Names returns the excluded directory names in sorted order
func (e *Exclusions) Names() []string {
	names := make([]string, 0, len(e.names))
	for n := range e.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
