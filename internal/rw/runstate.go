package rw

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Scope is an immutable snapshot of the include/exclude/ignore configuration.
// Callers must not modify the slices.
type Scope struct {
	Includes []string
	Excludes []string
	Ignore   []string

	matcher *IgnoreMatcher
}

// Allows reports whether path is in scope according to the directory rules.
func (s *Scope) Allows(path string) bool {
	return IsIncluded(path, s.Includes, s.Excludes)
}

// Ignored reports whether path matches one of the ignore patterns.
func (s *Scope) Ignored(path string) bool {
	return s.matcher.Match(path)
}

func newScope(includes, excludes, ignore []string) *Scope {
	return &Scope{
		Includes: slices.Clone(includes),
		Excludes: slices.Clone(excludes),
		Ignore:   slices.Clone(ignore),
		matcher:  NewIgnoreMatcher(ignore),
	}
}

// Change identifies which part of a RunState changed.
type Change int

const (
	ChangeRunning Change = iota + 1
	ChangeScope
)

// RunState holds the process-wide mutable configuration the monitor observes:
// whether watching is running, and the current scope. It is passed by
// reference to whoever needs it.
//
// The scope is swapped atomically as a whole, so a reader always sees a
// consistent include/exclude pair.
type RunState struct {
	running atomic.Bool
	scope   atomic.Pointer[Scope]

	mu   sync.Mutex
	subs map[int]chan Change
	next int
}

// NewRunState creates a running RunState with the given persisted lists.
func NewRunState(includes, excludes []string) *RunState {
	s := &RunState{subs: make(map[int]chan Change)}
	s.running.Store(true)
	s.scope.Store(newScope(includes, excludes, nil))
	return s
}

// Running reports whether watching should be active.
func (s *RunState) Running() bool {
	return s.running.Load()
}

// SetRunning sets the running flag and notifies subscribers if it changed.
func (s *RunState) SetRunning(running bool) {
	if s.running.Swap(running) != running {
		s.notify(ChangeRunning)
	}
}

// Toggle flips the running flag and returns the new value.
func (s *RunState) Toggle() bool {
	for {
		old := s.running.Load()
		if s.running.CompareAndSwap(old, !old) {
			s.notify(ChangeRunning)
			return !old
		}
	}
}

// Scope returns the current scope snapshot.
func (s *RunState) Scope() *Scope {
	return s.scope.Load()
}

// SetIncludes replaces the include list.
func (s *RunState) SetIncludes(includes []string) {
	cur := s.Scope()
	s.SetScope(includes, cur.Excludes, cur.Ignore)
}

// SetExcludes replaces the exclude list.
func (s *RunState) SetExcludes(excludes []string) {
	cur := s.Scope()
	s.SetScope(cur.Includes, excludes, cur.Ignore)
}

// SetIgnore replaces the ignore patterns.
func (s *RunState) SetIgnore(patterns []string) {
	cur := s.Scope()
	s.SetScope(cur.Includes, cur.Excludes, patterns)
}

// SetScope replaces the whole scope at once.
func (s *RunState) SetScope(includes, excludes, ignore []string) {
	s.scope.Store(newScope(includes, excludes, ignore))
	s.notify(ChangeScope)
}

// Subscribe returns a channel of change notifications and a function that
// cancels the subscription. Notifications are coalesced: a slow subscriber
// may miss some, so on any receipt it should reconcile against the whole
// state rather than trust the Change value alone.
func (s *RunState) Subscribe() (<-chan Change, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan Change, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *RunState) notify(c Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}
