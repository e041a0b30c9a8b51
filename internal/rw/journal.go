package rw

import (
	"context"
	"strings"
)

// Store provides durable storage for the event log.
// Implementations report errors; Journal decides how to degrade.
type Store interface {
	// Insert writes all events in one transaction. On success each event's ID
	// and RecordedAt are filled in. On failure no event of the batch is stored.
	Insert(ctx context.Context, events []FileEvent) error

	// Select returns the number of events whose path contains keyword and the
	// requested page of them, newest first. An empty keyword matches everything.
	Select(ctx context.Context, keyword string, page, size int) (int, []FileEvent, error)

	// Dir returns the directory holding the store's files, or "" if it has none.
	Dir() string

	// Close closes the store.
	Close() error
}

// Recorder accepts events observed by the monitor.
type Recorder interface {
	Record(ctx context.Context, events []FileEvent)
}

// Querier serves paginated reads of the event log.
type Querier interface {
	Query(ctx context.Context, keyword string, page, size int) (int, []FileEvent)
}

// Journal is the failure boundary around a Store. Storage errors are logged
// and turned into empty results so the monitor and readers keep running.
// A Journal with a nil store is the unavailable-storage case: every call is a no-op.
type Journal struct {
	store  Store
	logger Logger
}

// NewJournal wraps store. store may be nil.
func NewJournal(store Store, logger Logger) *Journal {
	return &Journal{store: store, logger: logger.With("component", "journal")}
}

// Available reports whether a store is attached.
func (j *Journal) Available() bool {
	return j.store != nil
}

// Dir returns the storage directory, or "" when unknown.
func (j *Journal) Dir() string {
	if j.store == nil {
		return ""
	}
	return j.store.Dir()
}

// Record inserts events as one batch. A failed batch is logged and dropped.
func (j *Journal) Record(ctx context.Context, events []FileEvent) {
	if j.store == nil || len(events) == 0 {
		return
	}
	if err := j.store.Insert(ctx, events); err != nil {
		j.logger.Error("insert failed, batch dropped", "count", len(events), "error", err)
		return
	}
	j.logger.Debug("events recorded", "count", len(events), "path", events[0].Path)
}

// Query returns the total count and one page of events matching keyword.
// Failures are logged and reported as (0, nil).
func (j *Journal) Query(ctx context.Context, keyword string, page, size int) (int, []FileEvent) {
	if j.store == nil {
		return 0, nil
	}
	keyword = strings.TrimSpace(keyword)
	total, rows, err := j.store.Select(ctx, keyword, page, size)
	if err != nil {
		j.logger.Error("query failed", "keyword", keyword, "page", page, "size", size, "error", err)
		return 0, nil
	}
	return total, rows
}

// Close closes the underlying store, if any.
func (j *Journal) Close() error {
	if j.store == nil {
		return nil
	}
	return j.store.Close()
}

var (
	_ Recorder = (*Journal)(nil)
	_ Querier  = (*Journal)(nil)
)
