package postgres

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq" // postgres driver

	"cafe_finder/internal/adapters/observability"
	"cafe_finder/internal/domain"
)

// Store keeps named records in a Postgres table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (p *Store) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS saved_records (
			name        TEXT PRIMARY KEY,
			body        JSONB NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
	_, err := p.db.ExecContext(ctx, query)
	return err
}

func (p *Store) Get(ctx context.Context, name string) ([]byte, bool, error) {
	var body []byte
	err := p.db.QueryRowContext(ctx,
		"SELECT body FROM saved_records WHERE name = $1",
		name,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		observability.ObserveRecord("postgres", "miss")
		return nil, false, nil
	}
	if err != nil {
		observability.ObserveRecord("postgres", "error")
		return nil, false, err
	}
	observability.ObserveRecord("postgres", "get")
	return body, true, nil
}

func (p *Store) Put(ctx context.Context, name string, body []byte) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO saved_records (name, body) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`,
		name, string(body),
	)
	if err != nil {
		observability.ObserveRecord("postgres", "error")
		return err
	}
	observability.ObserveRecord("postgres", "put")
	return nil
}

var _ domain.RecordStore = (*Store)(nil)
