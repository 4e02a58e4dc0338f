package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// CurrentSchemaVersion tracks the database schema version
const CurrentSchemaVersion = "1.0.0"

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Repositories table
CREATE TABLE IF NOT EXISTS repositories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    url TEXT,
    analyzed_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_repositories_run_id ON repositories(run_id);

-- File analyses table
CREATE TABLE IF NOT EXISTS file_analyses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    file_path TEXT NOT NULL,
    language TEXT,
    item_count INTEGER DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(run_id, file_path)
);

CREATE INDEX IF NOT EXISTS idx_file_analyses_run_id ON file_analyses(run_id);

-- Analysis items table
CREATE TABLE IF NOT EXISTS analysis_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_analysis_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    source TEXT NOT NULL,
    language TEXT NOT NULL,
    code TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (file_analysis_id) REFERENCES file_analyses(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_analysis_items_file ON analysis_items(file_analysis_id);
`

// ApplyMigrations brings the database schema up to the current version.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, migrationV1Up); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		"INSERT OR IGNORE INTO schema_version (version) VALUES (?)", CurrentSchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}
