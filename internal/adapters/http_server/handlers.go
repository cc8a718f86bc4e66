package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"cafe_finder/internal/domain"
)

// PlacesAPI is what the proxy routes need from the application layer.
type PlacesAPI interface {
	Nearby(ctx context.Context, lat, lng float64) ([]byte, error)
	Photo(ctx context.Context, ref string) (*domain.Photo, error)
	Configured() bool
}

type Handlers struct{ Places PlacesAPI }

const (
	titleMissingCoords = "Missing coordinates"
	titleMissingRef    = "Missing photo reference"
	titleKeyMissing    = "API Key missing"
	titlePlacesFailed  = "Failed to fetch places"
	titleImageFailed   = "Failed to fetch image"
)

// problem is RFC 7807 plus an "error" member carrying the title, which is
// what browser clients of the proxy read.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/api/places", h.places)
	s.mux.Get("/api/photo", h.photo)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Error: title}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// upstreamProblem maps a service error; a missing or rejected key is reported
// as such, everything else as the route's fetch failure.
func upstreamProblem(w http.ResponseWriter, err error, failTitle string) {
	if errors.Is(err, domain.ErrConfiguration) {
		writeProblem(w, http.StatusInternalServerError, titleKeyMissing, "")
		return
	}
	log.Error().Err(err).Msg(strings.ToLower(failTitle))
	writeProblem(w, http.StatusInternalServerError, failTitle, "")
}

func etagOf(body []byte) string {
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`
}

func parseCoord(s string) (float64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

func (h *Handlers) places(w http.ResponseWriter, r *http.Request) {
	lat, okLat := parseCoord(r.URL.Query().Get("lat"))
	lng, okLng := parseCoord(r.URL.Query().Get("lng"))
	if !okLat || !okLng {
		writeProblem(w, http.StatusBadRequest, titleMissingCoords, "lat and lng must be numbers")
		return
	}
	body, err := h.Places.Nearby(r.Context(), lat, lng)
	if err != nil {
		upstreamProblem(w, err, titlePlacesFailed)
		return
	}

	etag := etagOf(body)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write places body")
	}
}

func (h *Handlers) photo(w http.ResponseWriter, r *http.Request) {
	if !h.Places.Configured() {
		writeProblem(w, http.StatusInternalServerError, titleKeyMissing, "")
		return
	}
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		writeProblem(w, http.StatusBadRequest, titleMissingRef, "")
		return
	}
	p, err := h.Places.Photo(r.Context(), ref)
	if err != nil {
		upstreamProblem(w, err, titleImageFailed)
		return
	}
	defer p.Body.Close()

	w.Header().Set("Content-Type", p.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, p.Body); err != nil {
		log.Warn().Err(err).Msg("photo stream interrupted")
	}
}
