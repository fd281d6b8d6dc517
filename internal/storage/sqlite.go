package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/resumechat/internal/models"
)

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLiteCatalog opens or creates the catalog database at dbPath.
// Parent directories are created if they do not exist.
func NewSQLiteCatalog(dbPath string) (*SQLiteCatalog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteCatalog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		embedder TEXT NOT NULL,
		dimensions INTEGER NOT NULL,
		index_type TEXT NOT NULL,
		chunk_size INTEGER NOT NULL,
		chunk_overlap INTEGER NOT NULL,
		chunk_count INTEGER NOT NULL,
		index_path TEXT NOT NULL,
		metadata_path TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_builds_finished_at ON builds(finished_at);

	CREATE TABLE IF NOT EXISTS build_sources (
		build_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		source TEXT NOT NULL,
		bytes INTEGER NOT NULL,
		words INTEGER NOT NULL,
		chunks INTEGER NOT NULL,
		PRIMARY KEY (build_id, position),
		FOREIGN KEY (build_id) REFERENCES builds(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordBuild stores b and its sources in one transaction. An empty ID is
// filled with a new UUID.
func (s *SQLiteCatalog) RecordBuild(ctx context.Context, b *models.BuildRecord) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.FinishedAt.IsZero() {
		b.FinishedAt = time.Now()
	}
	if b.StartedAt.IsZero() {
		b.StartedAt = b.FinishedAt
	}
	b.StartedAt = b.StartedAt.UTC()
	b.FinishedAt = b.FinishedAt.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO builds (id, started_at, finished_at, embedder, dimensions, index_type,
		 chunk_size, chunk_overlap, chunk_count, index_path, metadata_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.StartedAt, b.FinishedAt, b.Embedder, b.Dimensions, b.IndexType,
		b.ChunkSize, b.ChunkOverlap, b.ChunkCount, b.IndexPath, b.MetadataPath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert build: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO build_sources (build_id, position, source, bytes, words, chunks)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, src := range b.Sources {
		if _, err := stmt.ExecContext(ctx, b.ID, i, src.Source, src.Bytes, src.Words, src.Chunks); err != nil {
			return fmt.Errorf("failed to insert source %s: %w", src.Source, err)
		}
	}
	return tx.Commit()
}

// LatestBuild returns the most recently finished build with its sources.
func (s *SQLiteCatalog) LatestBuild(ctx context.Context) (*models.BuildRecord, error) {
	b, err := scanBuild(s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, embedder, dimensions, index_type,
		 chunk_size, chunk_overlap, chunk_count, index_path, metadata_path
		 FROM builds ORDER BY finished_at DESC, rowid DESC LIMIT 1`,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoBuilds
	}
	if err != nil {
		return nil, err
	}

	b.Sources, err = s.sources(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListBuilds returns up to limit builds, newest first, without their sources.
func (s *SQLiteCatalog) ListBuilds(ctx context.Context, limit int) ([]*models.BuildRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, embedder, dimensions, index_type,
		 chunk_size, chunk_overlap, chunk_count, index_path, metadata_path
		 FROM builds ORDER BY finished_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []*models.BuildRecord
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// CountBuilds returns the number of recorded builds.
func (s *SQLiteCatalog) CountBuilds(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM builds`).Scan(&count)
	return count, err
}

func (s *SQLiteCatalog) sources(ctx context.Context, buildID string) ([]models.SourceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, bytes, words, chunks FROM build_sources
		 WHERE build_id = ? ORDER BY position`,
		buildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SourceRecord
	for rows.Next() {
		var src models.SourceRecord
		if err := rows.Scan(&src.Source, &src.Bytes, &src.Words, &src.Chunks); err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (*models.BuildRecord, error) {
	var b models.BuildRecord
	err := row.Scan(&b.ID, &b.StartedAt, &b.FinishedAt, &b.Embedder, &b.Dimensions, &b.IndexType,
		&b.ChunkSize, &b.ChunkOverlap, &b.ChunkCount, &b.IndexPath, &b.MetadataPath)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Close closes the database connection.
func (s *SQLiteCatalog) Close() error {
	return s.db.Close()
}
