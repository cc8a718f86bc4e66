package redisad

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"cafe_finder/internal/adapters/observability"
	"cafe_finder/internal/domain"
)

// Store is both the places response cache and a durable RecordStore.
type Store struct{ c *redis.Client }

func New(addr, pass string, db int) *Store {
	return &Store{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func (r *Store) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Store) Close() error { return r.c.Close() }

// ---- domain.Cache ----

func (r *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		observability.ObserveCache("redis", "miss")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	observability.ObserveCache("redis", "hit")
	return v, true, nil
}

func (r *Store) Set(ctx context.Context, key string, v []byte, ttlSec int) error {
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, key, v, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Store) Del(ctx context.Context, key string) error {
	observability.ObserveCache("redis", "del")
	return r.c.Del(ctx, key).Err()
}

// ---- domain.RecordStore ----

// Records exposes the client as a RecordStore; records never expire.
func (r *Store) Records(prefix string) *Records { return &Records{c: r.c, prefix: prefix} }

type Records struct {
	c      *redis.Client
	prefix string
}

func (r *Records) Get(ctx context.Context, name string) ([]byte, bool, error) {
	v, err := r.c.Get(ctx, r.prefix+name).Bytes()
	if err == redis.Nil {
		observability.ObserveRecord("redis", "miss")
		return nil, false, nil
	}
	if err != nil {
		observability.ObserveRecord("redis", "error")
		return nil, false, err
	}
	observability.ObserveRecord("redis", "get")
	return v, true, nil
}

func (r *Records) Put(ctx context.Context, name string, body []byte) error {
	if err := r.c.Set(ctx, r.prefix+name, body, 0).Err(); err != nil {
		observability.ObserveRecord("redis", "error")
		return err
	}
	observability.ObserveRecord("redis", "put")
	return nil
}

var (
	_ domain.Cache       = (*Store)(nil)
	_ domain.RecordStore = (*Records)(nil)
)
