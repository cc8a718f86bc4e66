package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cafe_finder/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()
	if observability.InitRegistry() != reg {
		t.Fatalf("registry should be shared")
	}

	// record samples so counters are non-zero
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveSwipe("right", "gesture")
	observability.ObserveRecord("sqlite", "put")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{"cafe_http_requests_total", "cafe_swipe_decisions_total", "cafe_record_events_total"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}

func TestNewLogger_DevWritesConsole(t *testing.T) {
	var sb strings.Builder
	l := observability.NewLogger("dev", &sb)
	l.Info().Str("k", "v").Msg("hello")
	if !strings.Contains(sb.String(), "hello") || strings.HasPrefix(sb.String(), "{") {
		t.Fatalf("expected console output, got %q", sb.String())
	}

	sb.Reset()
	l = observability.NewLogger("prod", &sb)
	l.Info().Msg("json")
	if !strings.HasPrefix(sb.String(), "{") {
		t.Fatalf("expected JSON output, got %q", sb.String())
	}
}
