package domain

import (
	"context"
	"io"
)

// RecordStore is durable storage of named opaque records.
type RecordStore interface {
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Put(ctx context.Context, name string, body []byte) error
}

// DataSource supplies the initial ordered candidate list for a deck.
type DataSource interface {
	Fetch(ctx context.Context) ([]Cafe, error)
}

// Locator performs a one-shot acquisition of the current coordinates.
type Locator interface {
	Locate(ctx context.Context) (Coords, error)
}

// PlacesClient is the upstream nearby-search/photo API behind the proxy.
type PlacesClient interface {
	NearbySearch(ctx context.Context, lat, lng float64) ([]byte, error)
	Photo(ctx context.Context, ref string) (*Photo, error)
}

// Photo is a streamed image body. Callers must close Body.
type Photo struct {
	Body        io.ReadCloser
	ContentType string
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, v []byte, ttlSec int) error
	Del(ctx context.Context, key string) error
}
