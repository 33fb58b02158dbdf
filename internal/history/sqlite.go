package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/terra-clan/aptitude-engine/internal/models"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteStore keeps histories in a single key-value table
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite history database.
// Use ":memory:" for an ephemeral store.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, kvSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load returns the identity's entries, oldest first
func (s *SQLiteStore) Load(ctx context.Context, identityID string) ([]models.ScoreEntry, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, Key(identityID)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.ScoreEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load score history: %w", err)
	}
	return decode(identityID, []byte(raw)), nil
}

// Append adds entries with a read-modify-write inside one transaction
func (s *SQLiteStore) Append(ctx context.Context, identityID string, entries ...models.ScoreEntry) error {
	if len(entries) == 0 {
		return nil
	}
	key := Key(identityID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read score history: %w", err)
	}

	data, err := encode(append(decode(identityID, []byte(raw)), entries...))
	if err != nil {
		return fmt.Errorf("failed to encode score history: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(data),
	); err != nil {
		return fmt.Errorf("failed to write score history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit score history: %w", err)
	}
	return nil
}

// Put overwrites the raw stored value of an identity's history
func (s *SQLiteStore) Put(ctx context.Context, identityID string, raw []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		Key(identityID), string(raw),
	)
	return err
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
