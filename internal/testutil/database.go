package testutil

import (
	"testing"

	"rw-go/internal/database"
	"rw-go/internal/database/migrations"
	"rw-go/internal/rw"
)

// NewTestStore creates a new in-memory SQLite store with migrations applied.
// The store is automatically closed when the test completes.
func NewTestStore(t *testing.T, clock rw.Clock) *database.SQLiteStore {
	t.Helper()

	s, err := database.NewSQLiteStore(":memory:", clock)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := migrations.MigrateUp(s.DB()); err != nil {
		s.Close()
		t.Fatalf("failed to apply migrations: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}
