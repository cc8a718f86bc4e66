package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cafe_finder/internal/domain"
)

const DefaultSeedDelay = 800 * time.Millisecond

const seedPhotoParams = "?auto=format&fit=crop&w=600&q=80"

func boolPtr(b bool) *bool { return &b }

// seedCafes is the fixed demo set served when live data is disabled.
func seedCafes() []domain.Cafe {
	const base = "https://images.unsplash.com/"
	return []domain.Cafe{
		{ID: "1", Name: "The Daily Grind", Rating: 4.8, OpenNow: boolPtr(true), PhotoRef: base + "photo-1509042239860-f550ce710b93" + seedPhotoParams},
		{ID: "2", Name: "Espresso Lab", Rating: 4.5, OpenNow: boolPtr(true), PhotoRef: base + "photo-1554118811-1e0d58224f24" + seedPhotoParams},
		{ID: "3", Name: "Bean & Leaf", Rating: 4.2, OpenNow: boolPtr(false), PhotoRef: base + "photo-1497935586351-b67a49e012bf" + seedPhotoParams},
		{ID: "4", Name: "Morning Brew", Rating: 4.9, OpenNow: boolPtr(true), PhotoRef: base + "photo-1521017432531-fbd92d768814" + seedPhotoParams},
		{ID: "5", Name: "Code & Coffee", Rating: 5.0, OpenNow: boolPtr(true), PhotoRef: base + "photo-1495474472287-4d71bcdd2085" + seedPhotoParams},
	}
}

// SeedSource serves the demo set after a simulated network delay.
type SeedSource struct {
	Delay time.Duration
}

func (s SeedSource) Fetch(ctx context.Context) ([]domain.Cafe, error) {
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return seedCafes(), nil
}

// NearbyFetcher returns a raw nearby-search body for a coordinate pair.
type NearbyFetcher interface {
	Nearby(ctx context.Context, lat, lng float64) ([]byte, error)
}

// RemoteSource locates the user once and asks the proxy for nearby cafes.
type RemoteSource struct {
	Locator domain.Locator
	Client  NearbyFetcher
}

func (s RemoteSource) Fetch(ctx context.Context) ([]domain.Cafe, error) {
	if s.Locator == nil || s.Client == nil {
		return nil, fmt.Errorf("remote source not configured: %w", domain.ErrConfiguration)
	}
	pos, err := s.Locator.Locate(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrGeolocationUnavailable) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("locate: %v: %w", err, domain.ErrGeolocationUnavailable)
	}
	body, err := s.Client.Nearby(ctx, pos.Lat, pos.Lng)
	if err != nil {
		return nil, err
	}
	return mapPlaces(body)
}
