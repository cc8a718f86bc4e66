// Package geo acquires the user's coordinates once per reload.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cafe_finder/internal/adapters/observability"
	"cafe_finder/internal/domain"
)

// Static is a fixed position, typically from LAT/LNG.
type Static struct{ Pos domain.Coords }

func (s Static) Locate(ctx context.Context) (domain.Coords, error) { return s.Pos, nil }

// IPLocator asks an IP geolocation service for an approximate position.
// Both {"lat","lon"} and {"latitude","longitude"} bodies are understood.
type IPLocator struct {
	URL string
	HC  *http.Client
}

func (l IPLocator) Locate(ctx context.Context) (domain.Coords, error) {
	hc := l.HC
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return domain.Coords{}, fmt.Errorf("geoip request: %v: %w", err, domain.ErrGeolocationUnavailable)
	}
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		observability.ObserveExternal("geoip", "locate", 0, time.Since(start))
		return domain.Coords{}, fmt.Errorf("geoip: %v: %w", err, domain.ErrGeolocationUnavailable)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("geoip", "locate", resp.StatusCode, time.Since(start))
	if resp.StatusCode != http.StatusOK {
		return domain.Coords{}, fmt.Errorf("geoip: status %d: %w", resp.StatusCode, domain.ErrGeolocationUnavailable)
	}

	var body map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return domain.Coords{}, fmt.Errorf("geoip decode: %v: %w", err, domain.ErrGeolocationUnavailable)
	}
	lat, okLat := firstFloat(body, "lat", "latitude")
	lng, okLng := firstFloat(body, "lon", "lng", "longitude")
	if !okLat || !okLng {
		return domain.Coords{}, fmt.Errorf("geoip: no coordinates in response: %w", domain.ErrGeolocationUnavailable)
	}
	return domain.Coords{Lat: lat, Lng: lng}, nil
}

func firstFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// Unavailable always fails; used when no position source is configured.
type Unavailable struct{}

func (Unavailable) Locate(ctx context.Context) (domain.Coords, error) {
	return domain.Coords{}, fmt.Errorf("set LAT/LNG or GEOIP_URL: %w", domain.ErrGeolocationUnavailable)
}

// FromConfig picks a locator: explicit coordinates win over an IP lookup.
func FromConfig(lat, lng, geoipURL string) (domain.Locator, error) {
	if lat != "" || lng != "" {
		la, err1 := strconv.ParseFloat(strings.TrimSpace(lat), 64)
		ln, err2 := strconv.ParseFloat(strings.TrimSpace(lng), 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("invalid LAT/LNG %q,%q: %w", lat, lng, domain.ErrValidation)
		}
		return Static{Pos: domain.Coords{Lat: la, Lng: ln}}, nil
	}
	if geoipURL != "" {
		return IPLocator{URL: geoipURL}, nil
	}
	return Unavailable{}, nil
}
