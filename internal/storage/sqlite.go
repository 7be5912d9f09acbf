// Package storage provides the SQLite persistence layer: the
// performance-statistics document, the trained-model artifact, the
// human-correction queue, the training corpus, and completed-job history.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/plumsage/ledgerlink/internal/common"
	"github.com/plumsage/ledgerlink/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const statsDocumentKey = "performance_stats"

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// GetPerformanceStats loads the persisted statistics document. A fresh
// database yields zeroed stats, not an error.
func (s *SQLiteStorage) GetPerformanceStats(ctx context.Context) (*model.PerformanceStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM documents WHERE key = ?`, statsDocumentKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return &model.PerformanceStats{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load performance stats: %w", err)
	}

	var stats model.PerformanceStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, fmt.Errorf("failed to decode performance stats: %w", err)
	}
	return &stats, nil
}

// SavePerformanceStats atomically replaces the statistics document.
func (s *SQLiteStorage) SavePerformanceStats(ctx context.Context, stats *model.PerformanceStats) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if stats == nil {
		return fmt.Errorf("%w: stats", ErrNilParameter)
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode performance stats: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		statsDocumentKey, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save performance stats: %w", err)
	}
	return nil
}

// SaveModelArtifact stores an opaque model blob under a name.
func (s *SQLiteStorage) SaveModelArtifact(ctx context.Context, name string, artifact []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}
	if len(artifact) == 0 {
		return fmt.Errorf("%w: artifact", ErrNilParameter)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO model_artifacts (name, artifact, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET artifact = excluded.artifact, updated_at = excluded.updated_at`,
		name, artifact, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save model artifact: %w", err)
	}
	return nil
}

// GetModelArtifact loads a stored model blob.
func (s *SQLiteStorage) GetModelArtifact(ctx context.Context, name string) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	var artifact []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT artifact FROM model_artifacts WHERE name = ?`, name).Scan(&artifact)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("model artifact %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model artifact: %w", err)
	}
	return artifact, nil
}
