// Package storage selects the durable record backend of the saved list.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	redisad "cafe_finder/internal/adapters/redis"
	"cafe_finder/internal/domain"
	"cafe_finder/internal/shared"
	"cafe_finder/internal/storage/mysql"
	"cafe_finder/internal/storage/postgres"
	"cafe_finder/internal/storage/sqlite"
)

const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
)

// Backend is an opened RecordStore plus whatever must be closed with it.
type Backend struct {
	Name    string
	Records domain.RecordStore
	closer  io.Closer
}

func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// Open connects the backend named by cfg.StoreBackend and prepares its schema.
func Open(ctx context.Context, cfg shared.Config) (*Backend, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	switch name {
	case "", BackendSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite %s: %v: %w", cfg.SQLitePath, err, domain.ErrStorage)
		}
		return &Backend{Name: BackendSQLite, Records: s, closer: s}, nil

	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis backend needs REDIS_ADDR: %w", domain.ErrConfiguration)
		}
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("redis %s: %v: %w", cfg.RedisAddr, err, domain.ErrStorage)
		}
		return &Backend{Name: BackendRedis, Records: rc.Records("cafes:"), closer: rc}, nil

	case BackendMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err == nil {
			err = db.PingContext(ctx)
		}
		if err != nil {
			if db != nil {
				db.Close()
			}
			return nil, fmt.Errorf("mysql: %v: %w", err, domain.ErrStorage)
		}
		s := mysql.New(db)
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("mysql migrate: %v: %w", err, domain.ErrStorage)
		}
		return &Backend{Name: BackendMySQL, Records: s, closer: db}, nil

	case BackendPostgres:
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("postgres backend needs DATABASE_URL: %w", domain.ErrConfiguration)
		}
		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %v: %w", err, domain.ErrStorage)
		}
		s := postgres.New(db)
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("postgres migrate: %v: %w", err, domain.ErrStorage)
		}
		return &Backend{Name: BackendPostgres, Records: s, closer: db}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q: %w", cfg.StoreBackend, domain.ErrConfiguration)
}
