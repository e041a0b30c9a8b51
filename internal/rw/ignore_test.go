package rw

import "testing"

func TestNewIgnoreMatcher(t *testing.T) {
	t.Run("skips blank lines and comments", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"", "  ", "# comment", "*.swp"})
		if len(m.patterns) != 1 {
			t.Fatalf("expected 1 pattern, got %d", len(m.patterns))
		}
		if m.patterns[0].pattern != "*.swp" {
			t.Errorf("expected *.swp, got %s", m.patterns[0].pattern)
		}
	})

	t.Run("classifies path vs basename patterns", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"*.swp", "build/output"})
		if m.patterns[0].matchPath {
			t.Error("*.swp should not be a path pattern")
		}
		if !m.patterns[1].matchPath {
			t.Error("build/output should be a path pattern")
		}
	})

	t.Run("nil matcher is empty", func(t *testing.T) {
		t.Parallel()
		var m *IgnoreMatcher
		if !m.Empty() {
			t.Error("nil matcher should be empty")
		}
		if m.Match("/a/b.swp") {
			t.Error("nil matcher should match nothing")
		}
	})
}

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{"basename glob matches file", []string{"*.swp"}, "/home/u/.notes.swp", true},
		{"basename glob matches deep file", []string{"*.swp"}, "/home/u/a/b/c/x.swp", true},
		{"basename glob does not match different extension", []string{"*.swp"}, "/home/u/x.txt", false},
		{"exact basename match", []string{".DS_Store"}, "/Users/u/Desktop/.DS_Store", true},
		{"basename pattern matches a directory name", []string{"node_modules"}, "/src/app/node_modules", true},
		{"path pattern matches trailing components", []string{"build/output"}, "/src/build/output", true},
		{"path pattern does not match wrong parent", []string{"build/output"}, "/src/dist/output", false},
		{"path pattern with glob", []string{"build/*.o"}, "/src/app/build/main.o", true},
		{"path pattern longer than path", []string{"a/b/c"}, "/b/c", false},
		{"leading slash is trimmed", []string{"/build/*.o"}, "/src/build/x.o", true},
		{"question mark wildcard", []string{"?.txt"}, "/a.txt", true},
		{"question mark does not match multiple chars", []string{"?.txt"}, "/ab.txt", false},
		{"character class", []string{"*.[oa]"}, "/lib/main.o", true},
		{"bad pattern is skipped", []string{"[", "*.tmp"}, "/x.tmp", true},
		{"no patterns matches nothing", nil, "/anything.txt", false},
		{"empty string path", []string{"*.swp"}, "", false},
		{"root path", []string{"*"}, "/", false},
		{"multiple patterns second matches", []string{"*.swp", "*.tmp"}, "/data.tmp", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewIgnoreMatcher(tt.patterns)
			got := m.Match(tt.path)
			if got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
