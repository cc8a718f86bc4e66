// Package places is the upstream nearby-search and photo API client used by
// the proxy.
package places

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"cafe_finder/internal/adapters/observability"
	"cafe_finder/internal/domain"
)

const maxBody = 8 << 20

type Client struct {
	base     string
	hc       *http.Client
	key      string
	rl       *rate.Limiter
	radius   int
	maxWidth int
}

type Option func(*Client)

func WithRadius(m int) Option { return func(c *Client) { c.radius = m } }
func WithMaxWidth(px int) Option { return func(c *Client) { c.maxWidth = px } }
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// New returns a client for base (e.g. https://maps.googleapis.com/maps/api/place).
// An empty key is a configuration error.
func New(base, key string, rps int, opts ...Option) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("places API key is required: %w", domain.ErrConfiguration)
	}
	if rps <= 0 {
		rps = 5
	}
	c := &Client{
		base:     strings.TrimRight(base, "/"),
		hc:       &http.Client{Timeout: 20 * time.Second},
		key:      key,
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		radius:   1500,
		maxWidth: 400,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ---- Public API ----

// NearbySearch returns the upstream JSON body for cafes around (lat, lng) verbatim.
func (c *Client) NearbySearch(ctx context.Context, lat, lng float64) ([]byte, error) {
	q := url.Values{}
	q.Set("location", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(c.radius))
	q.Set("type", "cafe")
	q.Set("key", c.key)

	resp, err := c.get(ctx, "nearbysearch", c.base+"/nearbysearch/json?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read nearbysearch body: %v: %w", err, domain.ErrUpstream)
	}
	return body, nil
}

// Photo streams the image for an opaque photo reference. The caller closes Body.
func (c *Client) Photo(ctx context.Context, ref string) (*domain.Photo, error) {
	q := url.Values{}
	q.Set("maxwidth", strconv.Itoa(c.maxWidth))
	q.Set("photoreference", ref)
	q.Set("key", c.key)

	resp, err := c.get(ctx, "photo", c.base+"/photo?"+q.Encode())
	if err != nil {
		return nil, err
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &domain.Photo{Body: resp.Body, ContentType: ct}, nil
}

// ---- Internals ----

// get performs a GET with client-side rate limiting and retries, returning the
// open 2xx response. Retries on 429 and transient 5xx, honoring Retry-After.
func (c *Client) get(ctx context.Context, endpoint, u string) (*http.Response, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "cafe-finder/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("places", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%s: %v: %w", endpoint, redact(err, c.key), domain.ErrUpstream)
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveExternal("places", endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil

		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return nil, fmt.Errorf("%s: remote %d: %w", endpoint, resp.StatusCode, domain.ErrConfiguration)

		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, fmt.Errorf("%s: %w", endpoint, domain.ErrNotFound)

		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusInternalServerError,
			resp.StatusCode == http.StatusBadGateway, resp.StatusCode == http.StatusServiceUnavailable,
			resp.StatusCode == http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%s: remote %d: %w", endpoint, resp.StatusCode, domain.ErrUpstream)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("%s: bad status %d: %s: %w", endpoint, resp.StatusCode,
				strings.TrimSpace(string(b)), domain.ErrUpstream)
		}
	}
	return nil, lastErr
}

// redact keeps the API key out of error strings (url.Error embeds the URL).
func redact(err error, key string) string {
	var ue *url.Error
	if errors.As(err, &ue) {
		return strings.ReplaceAll(ue.Error(), key, "REDACTED")
	}
	return err.Error()
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter from crypto/rand.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}

var _ domain.PlacesClient = (*Client)(nil)
