package injection

import (
	"os"
	"path/filepath"
)

// skippedDir records a subtree that could not be listed during enumeration
type skippedDir struct {
	path string
	err  error
}

// walkTree walks root depth-first in pre-order: dirFn sees root before any
// descendant, and a directory before any of its children. Children are
// discovered with a single listing per directory; a child directory whose
// name fails the exclusion set is neither reported nor descended into.
//
// fileFn, when non-nil, is invoked for every regular file in the visited
// directories. Listing failures (permissions, vanished directories) do not
// abort the walk: the subtree is recorded in the returned slice and siblings
// continue.
func walkTree(root string, excl *Exclusions, dirFn func(dir string), fileFn func(path string)) []skippedDir {
	var skipped []skippedDir
	walkTreeInner(root, excl, dirFn, fileFn, &skipped)
	return skipped
}

func walkTreeInner(dir string, excl *Exclusions, dirFn func(string), fileFn func(string), skipped *[]skippedDir) {
	if dirFn != nil {
		dirFn(dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		*skipped = append(*skipped, skippedDir{path: dir, err: err})
		return
	}

	for _, ent := range entries {
		name := ent.Name()
		child := filepath.Join(dir, name)

		if ent.IsDir() {
			if excl.SkipDir(name) {
				continue
			}
			walkTreeInner(child, excl, dirFn, fileFn, skipped)
			continue
		}

		if fileFn != nil && ent.Type().IsRegular() {
			fileFn(child)
		}
	}
}
