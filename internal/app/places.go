package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cafe_finder/internal/domain"
)

// PlacesService is the proxy's pass-through to the upstream places API with
// an optional response cache in front of nearby searches.
type PlacesService struct {
	client   domain.PlacesClient // nil when the API key is not configured
	cache    domain.Cache        // optional
	cacheTTL time.Duration
}

func NewPlacesService(c domain.PlacesClient, cache domain.Cache, ttl time.Duration) *PlacesService {
	return &PlacesService{client: c, cache: cache, cacheTTL: ttl}
}

// Configured reports whether an upstream key was provided.
func (s *PlacesService) Configured() bool { return s.client != nil }

func (s *PlacesService) Nearby(ctx context.Context, lat, lng float64) ([]byte, error) {
	if s.client == nil {
		return nil, fmt.Errorf("places API key missing: %w", domain.ErrConfiguration)
	}
	key := "places:" + coordKey(lat) + ":" + coordKey(lng)
	if s.cache != nil {
		if b, ok, _ := s.cache.Get(ctx, key); ok {
			return b, nil
		}
	}
	body, err := s.client.NearbySearch(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	// size guard; bodies are a few KB
	if s.cache != nil && s.cacheTTL > 0 && len(body) < 1_000_000 {
		_ = s.cache.Set(ctx, key, body, int(s.cacheTTL.Seconds()))
	}
	return body, nil
}

func (s *PlacesService) Photo(ctx context.Context, ref string) (*domain.Photo, error) {
	if s.client == nil {
		return nil, fmt.Errorf("places API key missing: %w", domain.ErrConfiguration)
	}
	return s.client.Photo(ctx, ref)
}

// coordKey rounds to 4 decimals (~11m) so nearby requests share entries.
func coordKey(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
