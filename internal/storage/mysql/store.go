package mysql

import (
	"context"
	"database/sql"
	"errors"

	"cafe_finder/internal/adapters/observability"
	"cafe_finder/internal/domain"
)

// Store keeps named records in a single MySQL table.
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createRecordsSQL)
	return err
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, getRecordSQL, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		observability.ObserveRecord("mysql", "miss")
		return nil, false, nil
	}
	if err != nil {
		observability.ObserveRecord("mysql", "error")
		return nil, false, err
	}
	observability.ObserveRecord("mysql", "get")
	return body, true, nil
}

// Put overwrites the record. The body must be valid JSON (column type).
func (s *Store) Put(ctx context.Context, name string, body []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertRecordSQL, name, string(body)); err != nil {
		observability.ObserveRecord("mysql", "error")
		return err
	}
	observability.ObserveRecord("mysql", "put")
	return nil
}

var _ domain.RecordStore = (*Store)(nil)
