package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

// baseSchemaFile creates rw_file and its indexes. Every statement is
// IF NOT EXISTS, so it is also safe to replay against a legacy database.
const baseSchemaFile = "files/000001_create_rw_file.up.sql"

// CheckDBMigrationStatus verifies that the database schema is up-to-date.
// Returns nil if the database is at the latest version.
// Returns an error describing any version mismatch or migration issues.
func CheckDBMigrationStatus(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// Note: We don't close m here because it would close the db connection
	// The caller owns the db and is responsible for closing it

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("database has no schema version (needs migration)")
		}
		return fmt.Errorf("failed to get database version: %w", err)
	}

	if dirty {
		return fmt.Errorf("database is in dirty state at version %d (migration failed previously)", version)
	}

	latestVersion, err := LatestVersion()
	if err != nil {
		return fmt.Errorf("failed to determine latest version: %w", err)
	}

	if version < latestVersion {
		return fmt.Errorf("database is at version %d but latest is %d (%d migrations behind)",
			version, latestVersion, latestVersion-version)
	}

	if version > latestVersion {
		return fmt.Errorf("database version %d is ahead of binary version %d (binary needs update)",
			version, latestVersion)
	}

	return nil
}

// MigrateUp brings the database to the latest schema version.
// A database created before schema versioning existed is adopted first:
// missing additive columns are ensured and the version is stamped, so its
// rows are kept as they are.
func MigrateUp(db *sql.DB) error {
	if err := adoptLegacySchema(db); err != nil {
		return fmt.Errorf("adopting unversioned schema: %w", err)
	}

	m, err := newMigrate(db)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// Note: We don't close m here because it would close the db connection
	// The caller owns the db and is responsible for closing it

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			// Database is already at latest version - this is fine
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Version returns the current schema version of the database.
// ok is false when no migration has ever been applied.
func Version(db *sql.DB) (version uint, dirty bool, ok bool, err error) {
	m, err := newMigrate(db)
	if err != nil {
		return 0, false, false, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("failed to get database version: %w", err)
	}
	return version, dirty, true, nil
}

// LatestVersion returns the highest migration version embedded in the binary.
func LatestVersion() (uint, error) {
	sourceDriver, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("failed to read migration files: %w", err)
	}
	defer sourceDriver.Close()

	return getLatestVersion(sourceDriver)
}

// EnsureColumn adds column to table through add when the column is missing.
// It reports whether add was called. Column names compare case-insensitively,
// as SQLite does. Calling it again once the column exists is a no-op.
func EnsureColumn(db *sql.DB, table, column string, add func(*sql.DB) error) (bool, error) {
	exists, err := columnExists(db, table, column)
	if err != nil {
		return false, fmt.Errorf("checking column %s in %s: %w", column, table, err)
	}
	if exists {
		return false, nil
	}
	if err := add(db); err != nil {
		return false, fmt.Errorf("adding column %s to %s: %w", column, table, err)
	}
	return true, nil
}

// AddEventTypeColumn adds rw_file.event_type with its default and index.
// Rows that existed before read back as 'unknown'.
func AddEventTypeColumn(db *sql.DB) error {
	stmts := []string{
		`ALTER TABLE rw_file ADD COLUMN event_type TEXT NOT NULL DEFAULT 'unknown'`,
		`CREATE INDEX IF NOT EXISTS index_rw_file_on_event_type ON rw_file (event_type)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// adoptLegacySchema handles a database that has rw_file but was never
// versioned. It replays the base schema (indexes only, the table exists),
// ensures the additive columns, then stamps the latest version.
func adoptLegacySchema(db *sql.DB) error {
	versioned, err := tableExists(db, "schema_migrations")
	if err != nil {
		return err
	}
	if versioned {
		return nil
	}
	legacy, err := tableExists(db, "rw_file")
	if err != nil {
		return err
	}
	if !legacy {
		return nil
	}

	base, err := migrationFiles.ReadFile(baseSchemaFile)
	if err != nil {
		return fmt.Errorf("reading base schema: %w", err)
	}
	if _, err := db.Exec(string(base)); err != nil {
		return fmt.Errorf("applying base schema: %w", err)
	}

	if _, err := EnsureColumn(db, "rw_file", "event_type", AddEventTypeColumn); err != nil {
		return err
	}

	latest, err := LatestVersion()
	if err != nil {
		return err
	}

	m, err := newMigrate(db)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Force(int(latest)); err != nil {
		return fmt.Errorf("stamping version %d: %w", latest, err)
	}
	return nil
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}
	return n > 0, nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	if !validIdentifier(table) {
		return false, fmt.Errorf("invalid table name %q", table)
	}

	rows, err := db.Query(`PRAGMA table_info("` + table + `")`)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if strings.EqualFold(name, column) {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return false, err
	}
	return found, nil
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// newMigrate creates a new migrate instance for the given database.
func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	// Create source driver from embedded files
	sourceDriver, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	// Create database driver (wraps *sql.DB with SQLite-specific migration logic)
	dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", dbDriver)
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}

// getLatestVersion returns the highest version number available in the source.
func getLatestVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, err
	}

	latestVersion := version
	for {
		nextVersion, err := src.Next(latestVersion)
		if err != nil {
			// Any error from Next() means we've reached the end
			// (no more migrations available)
			break
		}
		latestVersion = nextVersion
	}

	return latestVersion, nil
}
