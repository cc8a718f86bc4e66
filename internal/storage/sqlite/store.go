// Package sqlite stores records in a local SQLite file. It is the default
// backend of the terminal client.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"cafe_finder/internal/adapters/observability"
	"cafe_finder/internal/domain"
)

type Store struct {
	db *sql.DB
}

// Open opens or creates the database file and applies pending migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	if err := migrateUp(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// writes are serialized by the single event loop; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, name string) ([]byte, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM saved_records WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		observability.ObserveRecord("sqlite", "miss")
		return nil, false, nil
	}
	if err != nil {
		observability.ObserveRecord("sqlite", "error")
		return nil, false, err
	}
	observability.ObserveRecord("sqlite", "get")
	return []byte(body), true, nil
}

func (s *Store) Put(ctx context.Context, name string, body []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_records (name, body) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
		    body = excluded.body,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')`,
		name, string(body))
	if err != nil {
		observability.ObserveRecord("sqlite", "error")
		return err
	}
	observability.ObserveRecord("sqlite", "put")
	return nil
}

var _ domain.RecordStore = (*Store)(nil)
