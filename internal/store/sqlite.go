package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	sqliteDB   *sql.DB
	sqliteOnce sync.Once
	sqliteErr  error
)

// SQLiteStore keeps records in $HOME/.go_streamx/state.db.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the shared SQLite database.
func OpenSQLite() (*SQLiteStore, error) {
	sqliteOnce.Do(func() {
		dir := filepath.Join(os.Getenv("HOME"), ".go_streamx")
		if err := os.MkdirAll(dir, 0750); err != nil {
			sqliteErr = fmt.Errorf("store: mkdir %s: %w", dir, err)
			return
		}
		db, err := sql.Open("sqlite", filepath.Join(dir, "state.db"))
		if err != nil {
			sqliteErr = fmt.Errorf("store: open db: %w", err)
			return
		}
		db.SetMaxOpenConns(1) // SQLite: single writer
		if err := initSQLiteSchema(db); err != nil {
			sqliteErr = fmt.Errorf("store: init schema: %w", err)
			return
		}
		sqliteDB = db
	})
	if sqliteErr != nil {
		return nil, sqliteErr
	}
	return &SQLiteStore{db: sqliteDB}, nil
}

func initSQLiteSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS prefs (
		owner      TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (owner, key)
	)`)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, owner, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM prefs WHERE owner = ? AND key = ?`, owner, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Put(ctx context.Context, owner, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prefs (owner, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(owner, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		owner, key, value, now,
	)
	if err != nil {
		return fmt.Errorf("store: put %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, owner, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM prefs WHERE owner = ? AND key = ?`, owner, key); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

// Close is a no-op: the database handle is process-wide.
func (s *SQLiteStore) Close() error { return nil }
