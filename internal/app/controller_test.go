package app

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"cafe_finder/internal/adapters/observability"
	"cafe_finder/internal/domain"
	"cafe_finder/internal/gesture"
	"cafe_finder/internal/saved"
)

// ---- fakes ----

type memRecords struct {
	data   map[string][]byte
	putErr error
}

func (m *memRecords) Get(ctx context.Context, name string) ([]byte, bool, error) {
	b, ok := m.data[name]
	return b, ok, nil
}

func (m *memRecords) Put(ctx context.Context, name string, body []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[name] = body
	return nil
}

type staticSource struct {
	cafes []domain.Cafe
	err   error
}

func (s *staticSource) Fetch(ctx context.Context) ([]domain.Cafe, error) { return s.cafes, s.err }

func abc() []domain.Cafe {
	return []domain.Cafe{{ID: "A", Name: "A"}, {ID: "B", Name: "B"}, {ID: "C", Name: "C"}}
}

func newController(t *testing.T, src domain.DataSource) (*Controller, *saved.Store, *memRecords) {
	t.Helper()
	rs := &memRecords{}
	s := saved.New(rs, "", "mem", zerolog.Nop())
	c := NewController(src, s, zerolog.Nop())
	if src != nil {
		if err := c.Reload(context.Background()); err != nil {
			t.Fatalf("reload: %v", err)
		}
	}
	return c, s, rs
}

func ids(cs []domain.Cafe) string {
	out := ""
	for _, c := range cs {
		out += c.ID
	}
	return out
}

// drag performs a full press/move/release on the top card and settles it.
func drag(t *testing.T, c *Controller, id string, dx float64) (Release, Result) {
	t.Helper()
	if !c.PointerDown(id, 200, 50) {
		t.Fatalf("press on %s rejected", id)
	}
	c.PointerMove(200+dx/2, 50)
	rel := c.PointerUp(200+dx, 52)
	if rel.Token == nil {
		return rel, Result{}
	}
	res, err := c.Settle(context.Background(), *rel.Token)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	return rel, res
}

// ---- tests ----

func TestSwipeRightThenLeft(t *testing.T) {
	c, s, _ := newController(t, &staticSource{cafes: abc()})

	rel, res := drag(t, c, "A", 150)
	if rel.Outcome.Kind != gesture.Commit || rel.Outcome.ExitX != gesture.ExitOffset {
		t.Fatalf("expected right commit, got %+v", rel.Outcome)
	}
	if !res.Applied || !res.Saved || res.Decision.Direction != domain.Right {
		t.Fatalf("unexpected result: %+v", res)
	}
	if ids(c.Cards()) != "BC" || ids(s.Items()) != "A" {
		t.Fatalf("deck=%s saved=%s", ids(c.Cards()), ids(s.Items()))
	}

	_, res = drag(t, c, "B", -150)
	if !res.Applied || res.Saved {
		t.Fatalf("left swipe must not save: %+v", res)
	}
	if ids(c.Cards()) != "C" || ids(s.Items()) != "A" {
		t.Fatalf("deck=%s saved=%s", ids(c.Cards()), ids(s.Items()))
	}
	if c.State() != gesture.Idle {
		t.Fatalf("tracker should be idle, got %v", c.State())
	}
}

func TestBelowThresholdAndCancelChangeNothing(t *testing.T) {
	c, s, _ := newController(t, &staticSource{cafes: abc()})

	rel, _ := drag(t, c, "A", 99)
	if rel.Outcome.Kind != gesture.SnapBack || rel.Token != nil {
		t.Fatalf("expected snap back, got %+v", rel)
	}
	c.SnapSettled()

	if !c.PointerDown("A", 0, 0) {
		t.Fatalf("press rejected")
	}
	c.PointerMove(500, 0)
	if out := c.PointerCancel(); out.Kind != gesture.SnapBack {
		t.Fatalf("cancel should snap back, got %+v", out)
	}
	// release after cancel is ignored
	if rel := c.PointerUp(500, 0); rel.Outcome.Kind != gesture.Ignored {
		t.Fatalf("release after cancel: %+v", rel)
	}
	if ids(c.Cards()) != "ABC" || s.Len() != 0 {
		t.Fatalf("state changed: deck=%s saved=%d", ids(c.Cards()), s.Len())
	}
}

func TestPressOnNonTopCardIgnored(t *testing.T) {
	c, _, _ := newController(t, &staticSource{cafes: abc()})
	if c.PointerDown("B", 0, 0) {
		t.Fatalf("non-top card accepted a press")
	}
	if c.State() != gesture.Idle {
		t.Fatalf("state %v", c.State())
	}
}

func TestLikeTopTwiceRegistersOnce(t *testing.T) {
	c, s, _ := newController(t, &staticSource{cafes: abc()})
	tok, ok := c.LikeTop()
	if !ok {
		t.Fatalf("first like rejected")
	}
	if _, ok := c.LikeTop(); ok {
		t.Fatalf("second like accepted while committing")
	}
	if _, ok := c.SkipTop(); ok {
		t.Fatalf("skip accepted while committing")
	}
	if c.PointerDown("A", 0, 0) {
		t.Fatalf("press accepted while committing")
	}
	ctx := context.Background()
	if res, _ := c.Settle(ctx, tok); !res.Saved {
		t.Fatalf("like not applied: %+v", res)
	}
	if res, _ := c.Settle(ctx, tok); res.Applied {
		t.Fatalf("settle fired twice")
	}
	if ids(c.Cards()) != "BC" || ids(s.Items()) != "A" {
		t.Fatalf("deck=%s saved=%s", ids(c.Cards()), ids(s.Items()))
	}
}

func TestLikeTopOnEmptyDeck(t *testing.T) {
	c, _, _ := newController(t, &staticSource{cafes: []domain.Cafe{}})
	if _, ok := c.LikeTop(); ok {
		t.Fatalf("like on empty deck accepted")
	}
}

func TestOnSwipeDecision(t *testing.T) {
	c, s, _ := newController(t, &staticSource{cafes: abc()})
	ctx := context.Background()

	if res, err := c.OnSwipeDecision(ctx, domain.Decision{Direction: domain.Right, CafeID: "zzz"}); err != nil || res.Applied {
		t.Fatalf("unknown id should be a no-op: %+v %v", res, err)
	}
	if _, err := c.OnSwipeDecision(ctx, domain.Decision{Direction: "up", CafeID: "A"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if res, err := c.OnSwipeDecision(ctx, domain.Decision{Direction: domain.Right, CafeID: "C"}); err != nil || !res.Saved {
		t.Fatalf("unexpected: %+v %v", res, err)
	}
	if ids(c.Cards()) != "AB" || ids(s.Items()) != "C" {
		t.Fatalf("deck=%s saved=%s", ids(c.Cards()), ids(s.Items()))
	}
}

func TestSaveFailureStillRemovesCard(t *testing.T) {
	c, s, rs := newController(t, &staticSource{cafes: abc()})
	rs.putErr = errors.New("disk full")
	tok, _ := c.LikeTop()
	res, err := c.Settle(context.Background(), tok)
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if !res.Applied || c.InDeck("A") || !s.Contains("A") {
		t.Fatalf("unexpected state: %+v deck=%s", res, ids(c.Cards()))
	}
}

func TestReloadFailureLeavesDeck(t *testing.T) {
	src := &staticSource{err: domain.ErrUpstream}
	c, _, _ := newController(t, nil)
	c.source = src
	if err := c.Reload(context.Background()); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(c.Cards()) != 0 {
		t.Fatalf("deck should stay empty")
	}

	src.cafes, src.err = abc(), nil
	if err := c.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	src.cafes, src.err = nil, errors.New("offline")
	if err := c.Reload(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if ids(c.Cards()) != "ABC" {
		t.Fatalf("failed reload mutated the deck: %s", ids(c.Cards()))
	}
}

func TestReloadRejectsDuplicateIDs(t *testing.T) {
	c, _, _ := newController(t, &staticSource{cafes: abc()})
	c.source = &staticSource{cafes: []domain.Cafe{{ID: "x"}, {ID: "x"}}}
	if err := c.Reload(context.Background()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if ids(c.Cards()) != "ABC" {
		t.Fatalf("deck changed: %s", ids(c.Cards()))
	}
}

func TestStaleSettleAfterReload(t *testing.T) {
	c, s, _ := newController(t, &staticSource{cafes: abc()})
	tok, ok := c.LikeTop()
	if !ok {
		t.Fatalf("like rejected")
	}
	if err := c.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	res, err := c.Settle(context.Background(), tok)
	if err != nil || res.Applied {
		t.Fatalf("stale settle applied: %+v %v", res, err)
	}
	if ids(c.Cards()) != "ABC" || s.Len() != 0 {
		t.Fatalf("deck=%s saved=%d", ids(c.Cards()), s.Len())
	}
	if c.State() != gesture.Idle {
		t.Fatalf("reload should reset the tracker, got %v", c.State())
	}
}

func TestStaleReloadTicketDropped(t *testing.T) {
	c, _, _ := newController(t, nil)
	first := c.BeginReload()
	second := c.BeginReload()

	if ok, err := c.ApplyReload(second, abc(), nil); !ok || err != nil {
		t.Fatalf("latest reload not applied: %v %v", ok, err)
	}
	if ok, err := c.ApplyReload(first, []domain.Cafe{{ID: "old"}}, nil); ok || err != nil {
		t.Fatalf("superseded reload applied: %v %v", ok, err)
	}
	if ids(c.Cards()) != "ABC" {
		t.Fatalf("deck=%s", ids(c.Cards()))
	}
}

func TestCloseIgnoresPendingWork(t *testing.T) {
	c, s, _ := newController(t, &staticSource{cafes: abc()})
	tok, _ := c.LikeTop()
	ticket := c.BeginReload()
	c.Close()

	if res, _ := c.Settle(context.Background(), tok); res.Applied {
		t.Fatalf("settle after close applied")
	}
	if ok, _ := c.ApplyReload(ticket, []domain.Cafe{{ID: "z"}}, nil); ok {
		t.Fatalf("reload after close applied")
	}
	if c.InDeck("A") || c.PointerDown("A", 0, 0) {
		t.Fatalf("closed controller still interactive")
	}
	if s.Len() != 0 {
		t.Fatalf("saved changed after close")
	}
}

func TestVisualAccessor(t *testing.T) {
	c, _, _ := newController(t, &staticSource{cafes: abc()})
	v, ok := c.Visual("B")
	if !ok || v.ZIndex != 99 || v.OffsetY != 15 || v.Interactive {
		t.Fatalf("unexpected visual: %+v", v)
	}
	if _, ok := c.Visual("nope"); ok {
		t.Fatalf("visual for unknown id")
	}
}

func TestOnSwipeDecisionWaitsForCommittingGesture(t *testing.T) {
	c, s, _ := newController(t, &staticSource{cafes: abc()})
	ctx := context.Background()
	tok, ok := c.LikeTop()
	if !ok {
		t.Fatalf("like rejected")
	}

	res, err := c.OnSwipeDecision(ctx, domain.Decision{Direction: domain.Left, CafeID: "A"})
	if err != nil || res.Applied {
		t.Fatalf("decision applied during commit: %+v %v", res, err)
	}
	if ids(c.Cards()) != "ABC" {
		t.Fatalf("deck mutated during commit: %s", ids(c.Cards()))
	}

	if res, _ := c.Settle(ctx, tok); !res.Saved {
		t.Fatalf("pending like lost: %+v", res)
	}
	if ids(c.Cards()) != "BC" || ids(s.Items()) != "A" {
		t.Fatalf("deck=%s saved=%s", ids(c.Cards()), ids(s.Items()))
	}
}

func TestDecisionsReachMetrics(t *testing.T) {
	reg := observability.InitRegistry()
	c, _, _ := newController(t, &staticSource{cafes: abc()})
	if _, err := c.OnSwipeDecision(context.Background(), domain.Decision{Direction: domain.Left, CafeID: "B"}); err != nil {
		t.Fatalf("decide: %v", err)
	}

	rr := httptest.NewRecorder()
	observability.MetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	want := `cafe_swipe_decisions_total{direction="left",source="direct"}`
	if !strings.Contains(rr.Body.String(), want) {
		t.Fatalf("expected %s in scrape", want)
	}
}
