package rw

import (
	"path/filepath"
	"strings"
)

// Contains reports whether path is dir itself or lies beneath it.
// The comparison is by path component, so "/foo" does not contain "/foo2".
func Contains(dir, path string) bool {
	dirParts := splitPath(dir)
	pathParts := splitPath(path)
	if len(dirParts) > len(pathParts) {
		return false
	}
	for i := range dirParts {
		if dirParts[i] != pathParts[i] {
			return false
		}
	}
	return true
}

// splitPath cleans p and returns its components. The root is an empty
// component list, so "/" contains every absolute path.
func splitPath(p string) []string {
	p = filepath.ToSlash(filepath.Clean(p))
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}

// IsIncluded decides whether path is in scope for recording.
// Excludes always win; an empty include list means everything is included.
func IsIncluded(path string, includes, excludes []string) bool {
	for _, ex := range excludes {
		if Contains(ex, path) {
			return false
		}
	}
	if len(includes) == 0 {
		return true
	}
	for _, in := range includes {
		if Contains(in, path) {
			return true
		}
	}
	return false
}
