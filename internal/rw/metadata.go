package rw

import "time"

// Metadata is the best-effort filesystem state of a path at observation time.
type Metadata struct {
	ContentType string
	Size        int64
	CreatedAt   int64
	ModifiedAt  int64
	IsDir       bool
	Exists      bool
}

// MissingMetadata returns the values recorded for a path that no longer
// exists (or cannot be stat'ed): no size, no creation time, and the
// observation time as modification time.
func MissingMetadata(now time.Time) Metadata {
	return Metadata{
		Size:       0,
		CreatedAt:  -1,
		ModifiedAt: now.Unix(),
	}
}

// MetadataResolver looks up the current filesystem metadata for a path.
// Implementations never fail: unavailable data falls back to MissingMetadata.
type MetadataResolver interface {
	Resolve(path string, now time.Time) Metadata
}
