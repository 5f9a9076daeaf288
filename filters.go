package injection

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// PathFilter defines the interface for path filtering logic
type PathFilter interface {
	ShouldInclude(path string) bool
}

// globFilter implements PathFilter using ignore glob patterns
type globFilter struct {
	ignorePatterns []glob.Glob
}

// newGlobFilter compiles the given glob patterns into a filter. A nil filter
// is returned when no patterns are supplied.
func newGlobFilter(patterns []string) (*globFilter, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		g, err := glob.Compile(filepath.ToSlash(p))
		if err != nil {
			return nil, newError("compileGlob", p, err)
		}
		compiled = append(compiled, g)
	}
	return &globFilter{ignorePatterns: compiled}, nil
}

// ShouldInclude reports whether a path survives the ignore patterns. Both the
// full slash-normalized path and the bare file name are tested.
func (f *globFilter) ShouldInclude(path string) bool {
	normalized := filepath.ToSlash(path)
	base := filepath.Base(normalized)

	for _, g := range f.ignorePatterns {
		if g.Match(normalized) || g.Match(base) {
			return false
		}
	}
	return true
}

// Editor and system droppings that should never reach the applier. The
// ".tmp_inject" suffix is the applier's own staging file.
var osPrefixes = []string{"~", "#", ".#"}
var osSuffixes = []string{".tmp", ".bak", ".swp", ".save", ".old", ".swo", ".tmp_inject", "~"}

// isSystemFile checks if a path is likely a temporary or system-generated file
func isSystemFile(path string) bool {
	base := filepath.Base(path)

	for _, prefix := range osPrefixes {
		if strings.HasPrefix(base, prefix) {
			return true
		}
	}
	for _, suffix := range osSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

// isSubpath reports whether child lies inside parent
func isSubpath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	return err == nil && rel != "." && rel != ".." && !startsWithDotDot(rel)
}

func startsWithDotDot(rel string) bool {
	return len(rel) >= 2 && rel[:2] == ".."
}
