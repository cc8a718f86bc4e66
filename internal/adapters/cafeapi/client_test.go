package cafeapi_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"cafe_finder/internal/adapters/cafeapi"
	"cafe_finder/internal/domain"
)

func problem(w http.ResponseWriter, status int, title string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `{"type":"about:blank","title":"`+title+`","status":0,"error":"`+title+`"}`)
}

func TestNearby_Relay(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/places" || r.URL.Query().Get("lat") != "40.7" || r.URL.Query().Get("lng") != "-74" {
			t.Errorf("unexpected request %s", r.URL)
		}
		_, _ = io.WriteString(w, `{"status":"OK","results":[]}`)
	}))
	defer ts.Close()

	b, err := cafeapi.New(ts.URL+"/", nil).Nearby(context.Background(), 40.7, -74)
	if err != nil || string(b) != `{"status":"OK","results":[]}` {
		t.Fatalf("unexpected: %s %v", b, err)
	}
}

func TestNearby_ErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		title  string
		want   error
	}{
		{400, "Missing coordinates", domain.ErrValidation},
		{500, "API Key missing", domain.ErrConfiguration},
		{500, "Failed to fetch places", domain.ErrUpstream},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			problem(w, tc.status, tc.title)
		}))
		_, err := cafeapi.New(ts.URL, nil).Nearby(context.Background(), 1, 2)
		ts.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("%d %s: got %v", tc.status, tc.title, err)
		}
	}
}

func TestPhotoURL(t *testing.T) {
	c := cafeapi.New("http://proxy:8080", nil)
	if got := c.PhotoURL("https://img.example/x.jpg"); got != "https://img.example/x.jpg" {
		t.Fatalf("absolute URL rewritten: %s", got)
	}
	if got := c.PhotoURL("ab c/d"); got != "http://proxy:8080/api/photo?ref=ab+c%2Fd" {
		t.Fatalf("unexpected: %s", got)
	}
}

func TestFetchImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ref") != "ref-1" {
			problem(w, 404, "Failed to fetch image")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	defer ts.Close()

	c := cafeapi.New(ts.URL, nil)
	got, err := c.FetchImage(context.Background(), "ref-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if b := got.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("bounds %v", b)
	}
	if _, err := c.FetchImage(context.Background(), "other"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := c.FetchImage(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
