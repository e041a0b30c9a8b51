package rw

import (
	"path/filepath"
	"strings"
)

// ignorePattern is a parsed ignore pattern with its matching strategy.
type ignorePattern struct {
	pattern   string
	matchPath bool // true = match against the path's trailing components; false = basename only
}

// IgnoreMatcher suppresses noisy paths (editor swap files, .DS_Store) by glob.
// Patterns without '/' match against the basename only.
// Patterns with '/' match against the same number of trailing path components,
// so "build/*.o" matches "/src/app/build/main.o".
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank entries and entries starting with '#' are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	var patterns []ignorePattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		patterns = append(patterns, ignorePattern{
			pattern:   strings.Trim(raw, "/"),
			matchPath: strings.Contains(strings.Trim(raw, "/"), "/"),
		})
	}
	return &IgnoreMatcher{patterns: patterns}
}

// Empty reports whether the matcher has no usable patterns.
func (m *IgnoreMatcher) Empty() bool {
	return m == nil || len(m.patterns) == 0
}

// Match reports whether the given path should be ignored.
func (m *IgnoreMatcher) Match(path string) bool {
	if m.Empty() || path == "" {
		return false
	}

	parts := splitPath(path)
	if len(parts) == 0 {
		return false
	}
	basename := parts[len(parts)-1]

	for _, p := range m.patterns {
		var matched bool
		var err error
		if p.matchPath {
			n := strings.Count(p.pattern, "/") + 1
			if n > len(parts) {
				continue
			}
			tail := strings.Join(parts[len(parts)-n:], "/")
			matched, err = filepath.Match(p.pattern, tail)
		} else {
			matched, err = filepath.Match(p.pattern, basename)
		}
		if err != nil {
			// Malformed pattern never matches.
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
