package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rw-go/internal/database/migrations"
	"rw-go/internal/rw"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// FileName is the database file created inside the data directory.
const FileName = "rw.sqlite3"

const memoryPath = ":memory:"

// SQLiteStore implements rw.Store using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	dir   string
	clock rw.Clock
}

// Open prepares dataDir, opens dataDir/rw.sqlite3 and migrates it to the
// latest schema. Any failure is reported as rw.ErrStorageUnavailable.
func Open(dataDir string, clock rw.Clock) (*SQLiteStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: no data directory", rw.ErrStorageUnavailable)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %v", rw.ErrStorageUnavailable, err)
	}

	s, err := NewSQLiteStore(filepath.Join(dataDir, FileName), clock)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rw.ErrStorageUnavailable, err)
	}
	s.dir = dataDir

	if err := migrations.MigrateUp(s.db); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %v", rw.ErrStorageUnavailable, err)
	}
	return s, nil
}

// NewSQLiteStore opens a store at path without migrating it.
// path can be a file path or ":memory:" for an in-memory database.
// A nil clock uses the wall clock.
func NewSQLiteStore(path string, clock rw.Clock) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStoreFromDB(db, path, clock), nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB, path string, clock rw.Clock) *SQLiteStore {
	if clock == nil {
		clock = rw.RealClock{}
	}
	return &SQLiteStore{db: db, path: path, clock: clock}
}

// OpenConnection opens and configures a SQLite database connection.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	dsn := path
	if path != memoryPath {
		// Per-connection PRAGMAs go in the DSN so every pooled connection gets them.
		dsn = "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == memoryPath {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// DB exposes the underlying connection for migrations and tools.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Path returns the database file path, or ":memory:".
func (s *SQLiteStore) Path() string {
	return s.path
}

// Dir returns the storage directory, or "" for a store not opened by Open.
func (s *SQLiteStore) Dir() string {
	return s.dir
}

const insertEventSQL = `
	INSERT INTO rw_file (path, content_type, allocated_size, creation_date, modification_date, created_at, event_type)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// Insert writes events in a single transaction. IDs and RecordedAt are
// written back into events only when the whole batch commits.
func (s *SQLiteStore) Insert(ctx context.Context, events []rw.FileEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertEventSQL)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	recordedAt := s.clock.Now().Unix()
	ids := make([]int64, len(events))
	for i := range events {
		e := &events[i]
		if err := e.Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		res, err := stmt.ExecContext(ctx,
			e.Path, e.ContentType, e.Size, e.CreatedAt, e.ModifiedAt, recordedAt, e.Kind.String())
		if err != nil {
			return fmt.Errorf("inserting %s: %w", e.Path, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading id for %s: %w", e.Path, err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	for i := range events {
		events[i].ID = ids[i]
		events[i].RecordedAt = recordedAt
	}
	return nil
}

// Select returns the number of events whose path contains keyword and the
// requested page of them, newest first. An empty keyword matches all events.
func (s *SQLiteStore) Select(ctx context.Context, keyword string, page, size int) (int, []rw.FileEvent, error) {
	if page < 1 {
		return 0, nil, fmt.Errorf("invalid page %d", page)
	}
	if size < 1 {
		return 0, nil, fmt.Errorf("invalid page size %d", size)
	}

	where, args := keywordClause(keyword)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM rw_file"+where, args...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("counting events: %w", err)
	}

	query := `
		SELECT id, path, content_type, allocated_size, creation_date, modification_date, created_at, event_type
		FROM rw_file` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, size, (page-1)*size)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, nil, fmt.Errorf("selecting events: %w", err)
	}
	defer rows.Close()

	var events []rw.FileEvent
	for rows.Next() {
		var (
			e    rw.FileEvent
			kind string
		)
		if err := rows.Scan(&e.ID, &e.Path, &e.ContentType, &e.Size, &e.CreatedAt, &e.ModifiedAt, &e.RecordedAt, &kind); err != nil {
			return 0, nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Kind = rw.ParseEventKind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("reading events: %w", err)
	}

	return total, events, nil
}

// Count returns the number of events whose path contains keyword.
func (s *SQLiteStore) Count(ctx context.Context, keyword string) (int, error) {
	where, args := keywordClause(keyword)
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rw_file"+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return total, nil
}

// CheckMigrations reports whether the schema is at the latest version.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo writes a consistent copy of the database to dest.
// dest must not exist.
func (s *SQLiteStore) BackupTo(ctx context.Context, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("backup destination already exists: %s", dest)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("backing up to %s: %w", dest, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// keywordClause builds the WHERE clause for a substring match on path.
// LIKE wildcards in keyword are escaped so they match literally.
func keywordClause(keyword string) (string, []any) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", nil
	}
	return ` WHERE path LIKE ? ESCAPE '\'`, []any{"%" + escapeLike(keyword) + "%"}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ rw.Store = (*SQLiteStore)(nil)
