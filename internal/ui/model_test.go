package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"cafe_finder/internal/app"
	"cafe_finder/internal/domain"
	"cafe_finder/internal/gesture"
	"cafe_finder/internal/saved"
)

type memRecords struct{ data map[string][]byte }

func (m *memRecords) Get(ctx context.Context, name string) ([]byte, bool, error) {
	b, ok := m.data[name]
	return b, ok, nil
}

func (m *memRecords) Put(ctx context.Context, name string, body []byte) error {
	m.data[name] = body
	return nil
}

func newTestModel(t *testing.T) (Model, *app.Controller, *saved.Store) {
	t.Helper()
	store := saved.New(&memRecords{data: map[string][]byte{}}, "", "mem", zerolog.Nop())
	ctrl := app.NewController(app.SeedSource{}, store, zerolog.Nop())
	m := New(context.Background(), ctrl, Options{SettleDelay: time.Millisecond, PixelsPerCell: 8, Log: zerolog.Nop()})
	m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	cafes, err := ctrl.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	m = step(t, m, deckLoadedMsg{ticket: ctrl.BeginReload(), cafes: cafes})
	if len(ctrl.Cards()) != 5 {
		t.Fatalf("deck not loaded")
	}
	return m, ctrl, store
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// stepCmd applies msg and returns the command it produced.
func stepCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestDragRightSavesTopCard(t *testing.T) {
	m, ctrl, store := newTestModel(t)
	x, y := m.cardOrigin()

	m = step(t, m, mouse(tea.MouseActionPress, x+5, y+2))
	if ctrl.State() != gesture.Dragging {
		t.Fatalf("press on card did not start a drag: %v", ctrl.State())
	}
	m = step(t, m, mouse(tea.MouseActionMotion, x+10, y+2))
	if m.feedback.Affinity != gesture.AffinityLike {
		t.Fatalf("expected like hint, got %+v", m.feedback)
	}
	m, cmd := stepCmd(t, m, mouse(tea.MouseActionRelease, x+5+15, y+2)) // 120 logical px
	if cmd == nil || ctrl.State() != gesture.Committing {
		t.Fatalf("release did not commit: %v", ctrl.State())
	}
	if len(ctrl.Cards()) != 5 {
		t.Fatalf("deck changed before the settle delay")
	}

	m = step(t, m, cmd())
	if len(ctrl.Cards()) != 4 || !store.Contains("1") {
		t.Fatalf("deck=%d saved=%v", len(ctrl.Cards()), store.Items())
	}
	if !strings.Contains(m.View(), "1 saved") {
		t.Fatalf("header not updated:\n%s", m.View())
	}
}

func TestPressOutsideCardIgnored(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	m = step(t, m, mouse(tea.MouseActionPress, 0, 0))
	if ctrl.State() != gesture.Idle {
		t.Fatalf("press outside the card started a drag")
	}
	_ = m
}

func TestShortDragAndBlurDoNothing(t *testing.T) {
	m, ctrl, store := newTestModel(t)
	x, y := m.cardOrigin()

	m = step(t, m, mouse(tea.MouseActionPress, x+5, y+2))
	m, cmd := stepCmd(t, m, mouse(tea.MouseActionRelease, x+5+10, y+2)) // 80 logical px
	if ctrl.State() != gesture.SnappingBack || cmd == nil {
		t.Fatalf("expected snap back, got %v", ctrl.State())
	}
	m = step(t, m, cmd())
	if ctrl.State() != gesture.Idle {
		t.Fatalf("snap did not settle")
	}

	m = step(t, m, mouse(tea.MouseActionPress, x+5, y+2))
	m = step(t, m, mouse(tea.MouseActionMotion, x+40, y+2))
	m = step(t, m, tea.BlurMsg{})
	m = step(t, m, mouse(tea.MouseActionRelease, x+40, y+2))
	if len(ctrl.Cards()) != 5 || store.Len() != 0 {
		t.Fatalf("cancelled drag changed state")
	}
	_ = m
}

func TestKeysLikeAndSkip(t *testing.T) {
	m, ctrl, store := newTestModel(t)

	m, like := stepCmd(t, m, runes("l"))
	m, again := stepCmd(t, m, runes("l"))
	if like == nil || again != nil {
		t.Fatalf("second like while committing should be ignored")
	}
	m = step(t, m, like())

	m, skip := stepCmd(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = step(t, m, skip())

	if got := ctrl.Cards(); len(got) != 3 || got[0].ID != "3" {
		t.Fatalf("unexpected deck: %+v", got)
	}
	if items := store.Items(); len(items) != 1 || items[0].ID != "1" {
		t.Fatalf("unexpected saved: %+v", items)
	}
	if !strings.Contains(m.info, "Skipped Espresso Lab") {
		t.Fatalf("status: %q", m.info)
	}
}

func TestStalePhotoDropped(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	m, cmd := stepCmd(t, m, runes("h"))
	m = step(t, m, cmd())
	if ctrl.InDeck("1") {
		t.Fatalf("card 1 should be gone")
	}
	m = step(t, m, photoMsg{cafeID: "1", art: "ART"})
	if _, ok := m.art["1"]; ok {
		t.Fatalf("photo for a removed card was kept")
	}
	m = step(t, m, photoMsg{cafeID: "2", art: "ART"})
	if m.art["2"] != "ART" {
		t.Fatalf("photo for a live card dropped")
	}
}

func TestEmptyDeckAndReloadFailure(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	for len(ctrl.Cards()) > 0 {
		var cmd tea.Cmd
		m, cmd = stepCmd(t, m, runes("h"))
		m = step(t, m, cmd())
	}
	if !strings.Contains(m.View(), "No more cafes!") {
		t.Fatalf("empty deck message missing:\n%s", m.View())
	}

	m = step(t, m, deckLoadedMsg{ticket: ctrl.BeginReload(), err: domain.ErrGeolocationUnavailable})
	if len(ctrl.Cards()) != 0 || !strings.Contains(m.error, "Location unavailable") {
		t.Fatalf("unexpected: cards=%d err=%q", len(ctrl.Cards()), m.error)
	}
}

func TestSavedOverlayAndQuit(t *testing.T) {
	m, ctrl, _ := newTestModel(t)
	m = step(t, m, runes("s"))
	if !m.showSaved || !strings.Contains(m.View(), "Nothing saved yet") {
		t.Fatalf("overlay not shown")
	}
	// deck keys are inert behind the overlay
	if _, cmd := stepCmd(t, m, runes("l")); cmd != nil {
		t.Fatalf("like accepted behind overlay")
	}
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showSaved {
		t.Fatalf("esc did not close overlay")
	}
	if _, cmd := stepCmd(t, m, runes("q")); cmd == nil || !ctrl.Closed() {
		t.Fatalf("quit did not close the controller")
	}
}
