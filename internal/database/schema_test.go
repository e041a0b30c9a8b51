package database

import (
	"context"
	"strings"
	"testing"
)

func TestSQLiteStore_Schema(t *testing.T) {
	s, _ := newTestStore(t)

	schema, err := s.Schema(context.Background())
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}

	if !strings.HasPrefix(schema, "CREATE TABLE") || !strings.Contains(schema, "rw_file") {
		t.Errorf("schema should start with the rw_file table, got:\n%s", schema)
	}
	for _, want := range []string{"event_type", "index_rw_file_on_path", "index_rw_file_on_event_type"} {
		if !strings.Contains(schema, want) {
			t.Errorf("schema missing %q:\n%s", want, schema)
		}
	}
	if strings.Contains(schema, "schema_migrations") {
		t.Errorf("schema includes migration bookkeeping:\n%s", schema)
	}
	if strings.Contains(schema, "sqlite_sequence") {
		t.Errorf("schema includes SQLite internals:\n%s", schema)
	}
}
