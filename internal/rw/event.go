package rw

import (
	"fmt"
	"path/filepath"
)

// EventKind is the canonical classification of a filesystem change.
// The zero value is KindUnknown.
type EventKind string

const (
	KindUnknown     EventKind = ""
	KindFileCreated EventKind = "file_created"
	KindFileChanged EventKind = "file_changed"
	KindFileRenamed EventKind = "file_renamed"
	KindFileRemoved EventKind = "file_removed"
	KindDirCreated  EventKind = "dir_created"
	KindDirChanged  EventKind = "dir_changed"
	KindDirRenamed  EventKind = "dir_renamed"
	KindDirRemoved  EventKind = "dir_removed"
)

// unknownText is how KindUnknown is stored. It matches the column default
// so rows written before event_type existed read back as unknown.
const unknownText = "unknown"

var kindLabels = map[EventKind]string{
	KindUnknown:     "Unknown",
	KindFileCreated: "File Created",
	KindFileChanged: "File Changed",
	KindFileRenamed: "File Renamed",
	KindFileRemoved: "File Removed",
	KindDirCreated:  "Directory Created",
	KindDirChanged:  "Directory Changed",
	KindDirRenamed:  "Directory Renamed",
	KindDirRemoved:  "Directory Removed",
}

// ParseEventKind maps stored text back to an EventKind.
// Unrecognised text yields KindUnknown.
func ParseEventKind(s string) EventKind {
	k := EventKind(s)
	if k == unknownText {
		return KindUnknown
	}
	if _, ok := kindLabels[k]; ok {
		return k
	}
	return KindUnknown
}

// String returns the stored text form of the kind.
func (k EventKind) String() string {
	if k == KindUnknown {
		return unknownText
	}
	return string(k)
}

// Label returns a human-readable name for display.
func (k EventKind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return kindLabels[KindUnknown]
}

// Valid reports whether k is one of the defined kinds.
func (k EventKind) Valid() bool {
	_, ok := kindLabels[k]
	return ok
}

// IsDir reports whether the kind describes a directory.
func (k EventKind) IsDir() bool {
	switch k {
	case KindDirCreated, KindDirChanged, KindDirRenamed, KindDirRemoved:
		return true
	}
	return false
}

// FileEvent is one observed filesystem event as recorded in the event log.
// Timestamps are unix seconds; -1 marks an unavailable timestamp.
type FileEvent struct {
	ID          int64
	Path        string
	Kind        EventKind
	ContentType string
	Size        int64
	CreatedAt   int64
	ModifiedAt  int64
	RecordedAt  int64 // assigned by the store on insert
}

// Validate checks the fields a store requires before writing the event.
func (e *FileEvent) Validate() error {
	if e.Path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidEvent)
	}
	if !filepath.IsAbs(e.Path) {
		return fmt.Errorf("%w: path is not absolute: %s", ErrInvalidEvent, e.Path)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown event kind %q", ErrInvalidEvent, string(e.Kind))
	}
	return nil
}

// NewFileEvent builds an event for path from resolved metadata.
func NewFileEvent(path string, kind EventKind, md Metadata) FileEvent {
	return FileEvent{
		Path:        path,
		Kind:        kind,
		ContentType: md.ContentType,
		Size:        md.Size,
		CreatedAt:   md.CreatedAt,
		ModifiedAt:  md.ModifiedAt,
	}
}
