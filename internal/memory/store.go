package memory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"openagent/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the session transcript and the security audit
// trail. It implements domain.TranscriptStore.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection: SQLite handles one writer at a time anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcript (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		role        TEXT NOT NULL,
		content     TEXT NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_transcript_time ON transcript(created_at);

	CREATE TABLE IF NOT EXISTS audit_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		action      TEXT NOT NULL,
		command     TEXT,
		result      TEXT,
		details     TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_time ON audit_log(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// AddTranscript appends one transcript line.
func (s *SQLiteStore) AddTranscript(ctx context.Context, role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcript (role, content) VALUES (?, ?)`, role, content)
	if err != nil {
		return fmt.Errorf("transcript insert: %w", err)
	}
	return nil
}

// RecentTranscript returns up to limit entries, newest last.
func (s *SQLiteStore) RecentTranscript(ctx context.Context, limit int) ([]domain.TranscriptEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, created_at FROM transcript
		 ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("transcript query: %w", err)
	}
	defer rows.Close()

	var entries []domain.TranscriptEntry
	for rows.Next() {
		var e domain.TranscriptEntry
		if err := rows.Scan(&e.ID, &e.Role, &e.Content, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("transcript scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// ClearTranscript removes all transcript rows. The audit trail survives
// a session reset.
func (s *SQLiteStore) ClearTranscript(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transcript`); err != nil {
		return fmt.Errorf("transcript clear: %w", err)
	}
	return nil
}

// LogAudit records one security-relevant event.
func (s *SQLiteStore) LogAudit(ctx context.Context, entry domain.AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (action, command, result, details) VALUES (?, ?, ?, ?)`,
		entry.Action, entry.Command, entry.Result, entry.Details)
	if err != nil {
		return fmt.Errorf("audit insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
