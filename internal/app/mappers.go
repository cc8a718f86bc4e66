package app

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"cafe_finder/internal/domain"
)

// PlaceholderPhoto is used for places without photos.
const PlaceholderPhoto = "https://via.placeholder.com/400x300?text=No+Image"

// mapPlaces converts a nearby-search body into deck candidates, in upstream
// order. Results without a place_id are skipped and repeated ids keep the
// first occurrence, so the output is always loadable.
func mapPlaces(body []byte) ([]domain.Cafe, error) {
	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode places response: %v: %w", err, domain.ErrUpstream)
	}
	switch status := lookupStr(resp, "status"); status {
	case "", "OK", "ZERO_RESULTS":
	case "REQUEST_DENIED":
		return nil, fmt.Errorf("places status %s: %s: %w", status, lookupStr(resp, "error_message"), domain.ErrConfiguration)
	default:
		return nil, fmt.Errorf("places status %s: %s: %w", status, lookupStr(resp, "error_message"), domain.ErrUpstream)
	}

	raw, _ := resp["results"].([]any)
	out := make([]domain.Cafe, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, it := range raw {
		p, ok := it.(map[string]any)
		if !ok {
			continue
		}
		c, ok := mapPlace(p)
		if !ok {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

func mapPlace(p map[string]any) (domain.Cafe, bool) {
	id := lookupStr(p, "place_id")
	if id == "" {
		return domain.Cafe{}, false
	}
	c := domain.Cafe{
		ID:       id,
		Name:     lookupStr(p, "name"),
		PhotoRef: PlaceholderPhoto,
	}
	if r := getFloatFlexible(p, "rating"); r != nil {
		c.Rating = *r
	}
	if open, ok := lookupAny(p, "opening_hours.open_now").(bool); ok {
		c.OpenNow = &open
	}
	if photos, ok := p["photos"].([]any); ok && len(photos) > 0 {
		if first, ok := photos[0].(map[string]any); ok {
			if ref := lookupStr(first, "photo_reference"); ref != "" {
				c.PhotoRef = ref
			}
		}
	}
	return c, true
}

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "4,5").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}
