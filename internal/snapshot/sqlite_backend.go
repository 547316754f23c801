package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
)

const sqlitePragma = `
PRAGMA journal_mode=WAL;
PRAGMA busy_timeout=5000;
PRAGMA temp_store=MEMORY;
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshot_kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at TEXT NOT NULL -- RFC3339
);
`

// SQLiteBackend keeps snapshot values in a single SQLite table. Writes of
// several keys share one transaction.
type SQLiteBackend struct {
	db   *sqlx.DB
	path string
}

// NewSQLiteBackend opens (or creates) the database at path. Use ":memory:" for
// a throwaway database.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	var dsn string
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure parent directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_txlock=immediate&mode=rwc", path)
	} else {
		dsn = ":memory:"
	}

	db, err := sqlx.Connect(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database (%s): %w", sqliteDriverID, err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqlitePragma); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize snapshot schema: %w", err)
	}

	return &SQLiteBackend{db: db, path: path}, nil
}

func (s *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, "SELECT value FROM snapshot_kv WHERE key = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteBackend) PutAll(ctx context.Context, entries map[string][]byte) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range entries {
		_, err = tx.ExecContext(ctx, `
INSERT INTO snapshot_kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, now)
		if err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close snapshot database %s: %w", s.path, err)
	}
	return nil
}
