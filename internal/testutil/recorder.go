package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"rw-go/internal/rw"
)

// RecordingRecorder collects every recorded event in memory.
// Safe for concurrent use.
type RecordingRecorder struct {
	mu     sync.Mutex
	events []rw.FileEvent
}

func NewRecordingRecorder() *RecordingRecorder {
	return &RecordingRecorder{}
}

func (r *RecordingRecorder) Record(_ context.Context, events []rw.FileEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

// Events returns a copy of everything recorded so far.
func (r *RecordingRecorder) Events() []rw.FileEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]rw.FileEvent, len(r.events))
	copy(out, r.events)
	return out
}

// WaitFor polls until an event satisfies match or timeout elapses.
func (r *RecordingRecorder) WaitFor(timeout time.Duration, match func(rw.FileEvent) bool) (rw.FileEvent, bool) {
	deadline := time.Now().Add(timeout)
	for {
		for _, e := range r.Events() {
			if match(e) {
				return e, true
			}
		}
		if time.Now().After(deadline) {
			return rw.FileEvent{}, false
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// StubResolver returns fixed metadata per path, and MissingMetadata otherwise.
type StubResolver struct {
	mu    sync.Mutex
	paths map[string]rw.Metadata
}

func NewStubResolver() *StubResolver {
	return &StubResolver{paths: make(map[string]rw.Metadata)}
}

// Set registers the metadata returned for path.
func (r *StubResolver) Set(path string, md rw.Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[path] = md
}

func (r *StubResolver) Resolve(path string, now time.Time) rw.Metadata {
	r.mu.Lock()
	defer r.mu.Unlock()
	if md, ok := r.paths[path]; ok {
		return md
	}
	return rw.MissingMetadata(now)
}

// LogEntry is one captured log call.
type LogEntry struct {
	Level   string
	Message string
	Args    []any
}

// RecordingLogger captures log calls for assertions.
type RecordingLogger struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	attrs   []any
}

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
}

func (l *RecordingLogger) Debug(msg string, args ...any) { l.add("DEBUG", msg, args) }
func (l *RecordingLogger) Info(msg string, args ...any)  { l.add("INFO", msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...any)  { l.add("WARN", msg, args) }
func (l *RecordingLogger) Error(msg string, args ...any) { l.add("ERROR", msg, args) }

// With returns a logger sharing the same entries, with args prepended to every call.
func (l *RecordingLogger) With(args ...any) rw.Logger {
	attrs := append(append([]any{}, l.attrs...), args...)
	return &RecordingLogger{mu: l.mu, entries: l.entries, attrs: attrs}
}

func (l *RecordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	all := append(append([]any{}, l.attrs...), args...)
	*l.entries = append(*l.entries, LogEntry{Level: level, Message: msg, Args: all})
}

// Entries returns a copy of the captured entries.
func (l *RecordingLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(*l.entries))
	copy(out, *l.entries)
	return out
}

// Has reports whether an entry at level contains substr in its message.
func (l *RecordingLogger) Has(level, substr string) bool {
	for _, e := range l.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// String renders entries one per line, for test failure output.
func (l *RecordingLogger) String() string {
	var b strings.Builder
	for _, e := range l.Entries() {
		fmt.Fprintf(&b, "%s %s %v\n", e.Level, e.Message, e.Args)
	}
	return b.String()
}

var (
	_ rw.Recorder         = (*RecordingRecorder)(nil)
	_ rw.MetadataResolver = (*StubResolver)(nil)
	_ rw.Logger           = (*RecordingLogger)(nil)
)
