// Package cafeapi is the terminal client's view of the cafe proxy.
package cafeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cafe_finder/internal/adapters/observability"
	"cafe_finder/internal/domain"
)

const maxBody = 8 << 20

type Client struct {
	base string
	hc   *http.Client
}

func New(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{base: strings.TrimRight(base, "/"), hc: hc}
}

// problem is the proxy's error body; only the fields we read.
type problem struct {
	Title  string `json:"title"`
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// Nearby returns the raw nearby-search body relayed by the proxy.
func (c *Client) Nearby(ctx context.Context, lat, lng float64) ([]byte, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	resp, err := c.do(ctx, "places", c.base+"/api/places?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read places body: %v: %w", err, domain.ErrUpstream)
	}
	return body, nil
}

// PhotoURL resolves a PhotoRef: http(s) URLs are used as is, anything else
// goes through the proxy's photo endpoint.
func (c *Client) PhotoURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return c.base + "/api/photo?ref=" + url.QueryEscape(ref)
}

// FetchImage downloads and decodes the photo behind ref.
func (c *Client) FetchImage(ctx context.Context, ref string) (image.Image, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty photo reference: %w", domain.ErrValidation)
	}
	resp, err := c.do(ctx, "photo", c.PhotoURL(ref))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %v: %w", err, domain.ErrUpstream)
	}
	return img, nil
}

func (c *Client) do(ctx context.Context, endpoint, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", endpoint, err, domain.ErrValidation)
	}
	req.Header.Set("User-Agent", "cafe-finder/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("proxy", endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %v: %w", endpoint, err, domain.ErrUpstream)
	}
	observability.ObserveExternal("proxy", endpoint, resp.StatusCode, time.Since(start))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, statusErr(endpoint, resp)
}

// statusErr maps a proxy error response back onto the domain taxonomy.
func statusErr(endpoint string, resp *http.Response) error {
	var p problem
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&p)
	msg := p.Error
	if msg == "" {
		msg = p.Title
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%s: %s: %w", endpoint, msg, domain.ErrValidation)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", endpoint, msg, domain.ErrNotFound)
	case msg == "API Key missing":
		return fmt.Errorf("%s: %s: %w", endpoint, msg, domain.ErrConfiguration)
	default:
		return fmt.Errorf("%s: remote %d: %s: %w", endpoint, resp.StatusCode, msg, domain.ErrUpstream)
	}
}
