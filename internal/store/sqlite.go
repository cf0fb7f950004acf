package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/mail-agent/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// RecordRun inserts one ledger entry.
func (s *SQLiteStore) RecordRun(ctx context.Context, run model.DraftRun) error {
	const query = `
		INSERT INTO draft_runs (
			id, message_id, subject, recipient, status, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.MessageID, run.Subject, run.Recipient,
		run.Status, run.Error, createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}

	return nil
}

// ListRuns returns ledger entries matching the filter, newest first.
func (s *SQLiteStore) ListRuns(
	ctx context.Context, filter RunFilter,
) ([]model.DraftRun, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.MessageID != nil {
		conditions = append(conditions, "message_id = ?")
		args = append(args, *filter.MessageID)
	}

	query := `
		SELECT id, message_id, subject, recipient, status, error, created_at
		FROM draft_runs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []model.DraftRun
	for rows.Next() {
		var r model.DraftRun
		if err := rows.Scan(
			&r.ID, &r.MessageID, &r.Subject, &r.Recipient,
			&r.Status, &r.Error, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// HasDraftFor reports whether a created draft already exists for the given
// original Message-ID.
func (s *SQLiteStore) HasDraftFor(
	ctx context.Context, messageID string,
) (bool, error) {
	if messageID == "" {
		return false, nil
	}

	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM draft_runs WHERE message_id = ? AND status = ?",
		messageID, model.RunStatusCreated,
	)
	if err != nil {
		return false, fmt.Errorf("checking draft for %s: %w", messageID, err)
	}

	return count > 0, nil
}
