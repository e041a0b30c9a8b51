package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DumpSchema returns the CREATE statements for the event tables and indexes,
// tables first. SQLite internals and the migration bookkeeping table are left out.
func DumpSchema(ctx context.Context, db *sql.DB) (string, error) {
	query := `
		SELECT sql || ';'
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY
		  CASE type
		    WHEN 'table' THEN 1
		    WHEN 'index' THEN 2
		  END,
		  name
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", fmt.Errorf("scan failed: %w", err)
		}
		b.WriteString(stmt)
		b.WriteString("\n\n")
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("rows error: %w", err)
	}
	return b.String(), nil
}

// Schema returns the store's current schema. See DumpSchema.
func (s *SQLiteStore) Schema(ctx context.Context) (string, error) {
	return DumpSchema(ctx, s.db)
}
