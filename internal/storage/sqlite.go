package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dshills/docforge/pkg/types"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveRepository records the run's repository identity.
func (s *SQLiteStorage) SaveRepository(ctx context.Context, repo *Repository) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO repositories (run_id, name, url, analyzed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET name=excluded.name, url=excluded.url, analyzed_at=excluded.analyzed_at
		RETURNING id`,
		repo.RunID, repo.Name, repo.URL, repo.AnalyzedAt).Scan(&repo.ID)
	if err != nil {
		return fmt.Errorf("save repository: %w", err)
	}
	return nil
}

// GetRepository retrieves a repository by run ID.
func (s *SQLiteStorage) GetRepository(ctx context.Context, runID string) (*Repository, error) {
	repo := &Repository{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, run_id, name, url, analyzed_at FROM repositories WHERE run_id = ?", runID).
		Scan(&repo.ID, &repo.RunID, &repo.Name, &repo.URL, &repo.AnalyzedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}
	return repo, nil
}

// SaveFileAnalysis persists one file's result and all of its items in a
// single transaction.
func (s *SQLiteStorage) SaveFileAnalysis(ctx context.Context, runID string, res types.FileAnalysisResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var fileID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO file_analyses (run_id, file_path, language, item_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, file_path) DO UPDATE SET language=excluded.language, item_count=excluded.item_count
		RETURNING id`,
		runID, res.FilePath, res.Language, len(res.Items)).Scan(&fileID)
	if err != nil {
		return fmt.Errorf("save file analysis: %w", err)
	}

	// Replace any items from a previous save of the same file.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM analysis_items WHERE file_analysis_id = ?", fileID); err != nil {
		return fmt.Errorf("clear stale items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO analysis_items (file_analysis_id, title, description, source, language, code)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare item insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range res.Items {
		if _, err := stmt.ExecContext(ctx,
			fileID, item.Title, item.Description, item.Source, item.Language, item.Code); err != nil {
			return fmt.Errorf("save item %q: %w", item.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CountItems returns the number of stored items for a run.
func (s *SQLiteStorage) CountItems(ctx context.Context, runID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM analysis_items ai
		JOIN file_analyses fa ON fa.id = ai.file_analysis_id
		WHERE fa.run_id = ?`, runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}
