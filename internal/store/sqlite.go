package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/forgeworks/agentwizard/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // Serializes writes to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS artifacts (
		artifact_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_expires ON artifacts(expires_at) WHERE expires_at IS NOT NULL;
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// PutArtifact stores an artifact, replacing any previous one with the
// same ID.
func (s *SQLiteStore) PutArtifact(ctx context.Context, artifact *domain.Artifact) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query := `
	INSERT INTO artifacts (artifact_id, kind, name, content, created_at, expires_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(artifact_id) DO UPDATE SET
		kind = excluded.kind,
		name = excluded.name,
		content = excluded.content,
		created_at = excluded.created_at,
		expires_at = excluded.expires_at`

	var expiresAt interface{}
	if !artifact.ExpiresAt.IsZero() {
		expiresAt = artifact.ExpiresAt.Unix()
	}

	_, err := s.db.ExecContext(ctx, query,
		artifact.ID, artifact.Kind, artifact.Name, artifact.Content,
		artifact.CreatedAt.Unix(), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert artifact: %w", err)
	}
	return nil
}

// TakeArtifact retrieves an artifact and removes it in one transaction.
// Implements retry logic with exponential backoff to handle SQLITE_BUSY
// errors.
func (s *SQLiteStore) TakeArtifact(ctx context.Context, id string) (*domain.Artifact, error) {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		artifact, err := s.takeArtifactOnce(ctx, id)
		if err == nil {
			return artifact, nil
		}

		// Check if it's a SQLITE_BUSY error
		if strings.Contains(err.Error(), "database is locked") || strings.Contains(err.Error(), "SQLITE_BUSY") {
			if i < maxRetries-1 {
				delay := baseDelay * time.Duration(1<<i) // exponential backoff: 100ms, 200ms, 400ms
				slog.Debug("TakeArtifact failed with SQLITE_BUSY, retrying",
					"artifact_id", id,
					"attempt", i+1,
					"delay", delay)
				time.Sleep(delay)
				continue
			}
		}

		return nil, fmt.Errorf("take artifact %s after %d attempts: %w", id, i+1, err)
	}

	return nil, nil
}

func (s *SQLiteStore) takeArtifactOnce(ctx context.Context, id string) (*domain.Artifact, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin take: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Warn("failed to roll back take transaction", "error", rbErr)
		}
	}()

	row := tx.QueryRowContext(ctx, `
		SELECT artifact_id, kind, name, content, created_at, expires_at
		FROM artifacts WHERE artifact_id = ?`, id)

	var artifact domain.Artifact
	var createdAt int64
	var expiresAt sql.NullInt64
	err = row.Scan(&artifact.ID, &artifact.Kind, &artifact.Name, &artifact.Content, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan artifact row: %w", err)
	}
	artifact.CreatedAt = time.Unix(createdAt, 0)
	if expiresAt.Valid {
		artifact.ExpiresAt = time.Unix(expiresAt.Int64, 0)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts WHERE artifact_id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete claimed artifact: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit take: %w", err)
	}

	if artifact.Expired(time.Now()) {
		return nil, nil
	}
	return &artifact, nil
}

// CleanupExpired removes artifacts past their expiry.
func (s *SQLiteStore) CleanupExpired(ctx context.Context) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM artifacts WHERE expires_at IS NOT NULL AND expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("cleanup expired artifacts: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
