// Package ui is the terminal front end: a bubbletea program that hosts the
// swipe controller and maps mouse drags onto pointer events.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"cafe_finder/internal/app"
	"cafe_finder/internal/domain"
	"cafe_finder/internal/gesture"
)

const (
	headerLines  = 2
	cardHeight   = PhotoLines + 5 // border, blank line, name, meta
	snapDuration = 150 * time.Millisecond
)

type Options struct {
	SettleDelay   time.Duration
	PixelsPerCell int
	PhotoWorkers  int
	Images        ImageFetcher // nil disables photos
	Log           zerolog.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx     context.Context
	ctrl    *app.Controller
	photos  *photoLoader
	opts    Options
	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	width  int
	height int

	loading   bool
	feedback  gesture.Feedback
	exiting   string // id of the card in its settle delay
	art       map[string]string
	requested map[string]bool
	showSaved bool

	info  string
	error string
}

// New creates the root model. The first reload starts in Init.
func New(ctx context.Context, ctrl *app.Controller, opts Options) Model {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = gesture.DefaultSettleDelay
	}
	if opts.PixelsPerCell <= 0 {
		opts.PixelsPerCell = 8
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	return Model{
		ctx:       ctx,
		ctrl:      ctrl,
		photos:    newPhotoLoader(opts.Images, opts.PhotoWorkers, cardInner, PhotoLines),
		opts:      opts,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		loading:   true,
		art:       map[string]string{},
		requested: map[string]bool{},
	}
}

// Init starts the first reload.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd(m.ctrl.BeginReload()))
}

func (m Model) fetchCmd(t app.ReloadTicket) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		cafes, err := ctrl.Fetch(ctx)
		return deckLoadedMsg{ticket: t, cafes: cafes, err: err}
	}
}

func (m Model) settleCmd(tok app.SettleToken) tea.Cmd {
	return tea.Tick(m.opts.SettleDelay, func(time.Time) tea.Msg { return settleMsg{token: tok} })
}

func snapCmd() tea.Cmd {
	return tea.Tick(snapDuration, func(time.Time) tea.Msg { return snapDoneMsg{} })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.BlurMsg:
		return m.cancelDrag()

	case deckLoadedMsg:
		ok, err := m.ctrl.ApplyReload(msg.ticket, msg.cafes, msg.err)
		if !ok && err == nil {
			return m, nil // superseded
		}
		m.loading = false
		if err != nil {
			m.error = describe(err)
			return m, nil
		}
		m.error, m.info = "", fmt.Sprintf("%d cafes nearby", len(msg.cafes))
		m.feedback, m.exiting = gesture.Feedback{}, ""
		m.art, m.requested = map[string]string{}, map[string]bool{}
		return m, m.prefetch()

	case settleMsg:
		res, err := m.ctrl.Settle(m.ctx, msg.token)
		if m.ctrl.State() == gesture.Idle {
			m.exiting, m.feedback = "", gesture.Feedback{}
		}
		m.report(res, err)
		return m, m.prefetch()

	case snapDoneMsg:
		m.ctrl.SnapSettled()
		if m.ctrl.State() == gesture.Idle {
			m.feedback = gesture.Feedback{}
		}
		return m, nil

	case photoMsg:
		if !m.ctrl.InDeck(msg.cafeID) {
			return m, nil
		}
		if msg.err != nil {
			m.opts.Log.Debug().Err(msg.err).Str("id", msg.cafeID).Msg("photo unavailable")
			m.art[msg.cafeID] = lipgloss.Place(cardInner, PhotoLines, lipgloss.Center, lipgloss.Center, MutedStyle.Render("no photo"))
			return m, nil
		}
		m.art[msg.cafeID] = msg.art
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.showSaved {
		if key.Matches(msg, m.keys.Saved, m.keys.Cancel) {
			m.showSaved = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m.cancelDrag()

	case key.Matches(msg, m.keys.Saved):
		m.showSaved = true
		return m, nil

	case key.Matches(msg, m.keys.Like):
		return m.commitTop(m.ctrl.LikeTop)

	case key.Matches(msg, m.keys.Skip):
		return m.commitTop(m.ctrl.SkipTop)

	case key.Matches(msg, m.keys.Reload):
		m.loading, m.info, m.error = true, "", ""
		return m, tea.Batch(m.spinner.Tick, m.fetchCmd(m.ctrl.BeginReload()))
	}
	return m, nil
}

func (m Model) commitTop(commit func() (app.SettleToken, bool)) (tea.Model, tea.Cmd) {
	top, ok := m.ctrl.Top()
	if !ok {
		return m, nil
	}
	tok, ok := commit()
	if !ok {
		return m, nil
	}
	m.exiting = top.ID
	if s, ok := m.ctrl.Session(); ok {
		m.feedback = gesture.FeedbackFor(s.ExitX * gesture.Threshold / gesture.ExitOffset)
	}
	return m, m.settleCmd(tok)
}

// cardOrigin is the top-left cell of the resting top card.
func (m Model) cardOrigin() (int, int) {
	x := (m.width - CardWidth) / 2
	if x < 0 {
		x = 0
	}
	return x, headerLines
}

func (m Model) onCard(x, y int) bool {
	cx, cy := m.cardOrigin()
	return x >= cx && x < cx+CardWidth && y >= cy && y < cy+cardHeight
}

// logical converts a cell coordinate to the tracker's units.
func (m Model) logical(cells int) float64 { return float64(cells * m.opts.PixelsPerCell) }

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showSaved {
		return m, nil
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !m.onCard(msg.X, msg.Y) {
			return m, nil
		}
		top, ok := m.ctrl.Top()
		if !ok {
			return m, nil
		}
		if m.ctrl.PointerDown(top.ID, m.logical(msg.X), m.logical(msg.Y)) {
			m.feedback = gesture.Feedback{}
		}
		return m, nil

	case tea.MouseActionMotion:
		if fb, ok := m.ctrl.PointerMove(m.logical(msg.X), m.logical(msg.Y)); ok {
			m.feedback = fb
		}
		return m, nil

	case tea.MouseActionRelease:
		rel := m.ctrl.PointerUp(m.logical(msg.X), m.logical(msg.Y))
		switch rel.Outcome.Kind {
		case gesture.Commit:
			m.exiting = rel.Outcome.CardID
			m.feedback = gesture.FeedbackFor(rel.Outcome.ExitX * gesture.Threshold / gesture.ExitOffset)
			return m, m.settleCmd(*rel.Token)
		case gesture.SnapBack:
			m.feedback = gesture.Feedback{}
			return m, snapCmd()
		}
	}
	return m, nil
}

func (m Model) cancelDrag() (tea.Model, tea.Cmd) {
	if out := m.ctrl.PointerCancel(); out.Kind == gesture.SnapBack {
		m.feedback = gesture.Feedback{}
		return m, snapCmd()
	}
	return m, nil
}

func (m *Model) report(res app.Result, err error) {
	switch {
	case err != nil && res.Applied:
		m.error = fmt.Sprintf("Saved %s for this session only: %v", res.Cafe.Name, err)
	case err != nil:
		m.error = describe(err)
	case res.Saved:
		m.error, m.info = "", "♥ Saved "+res.Cafe.Name
	case res.Applied && res.Decision.Direction == domain.Left:
		m.error, m.info = "", "Skipped "+res.Cafe.Name
	}
}

// prefetch requests photos for the first cards that have none yet.
func (m Model) prefetch() tea.Cmd {
	cards := m.ctrl.Cards()
	if len(cards) > PrefetchDepth {
		cards = cards[:PrefetchDepth]
	}
	var todo []domain.Cafe
	for _, c := range cards {
		if m.requested[c.ID] {
			continue
		}
		m.requested[c.ID] = true
		todo = append(todo, c)
	}
	return m.photos.load(m.ctx, todo)
}

func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrGeolocationUnavailable):
		return "Location unavailable: set LAT/LNG or GEOIP_URL, or use seed data"
	case errors.Is(err, domain.ErrConfiguration):
		return "Proxy is missing its API key"
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	}
	return err.Error()
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("☕ Cafe Finder"))
	b.WriteString(MutedStyle.Render(fmt.Sprintf("%d saved", len(m.ctrl.Saved()))))
	b.WriteString("\n\n")

	switch {
	case m.showSaved:
		b.WriteString(m.savedView())
	case m.loading && len(m.ctrl.Cards()) == 0:
		b.WriteString("  " + m.spinner.View() + " Finding cafes nearby…")
	default:
		b.WriteString(m.deckView())
	}
	b.WriteString("\n\n")

	if m.error != "" {
		b.WriteString(ErrorStyle.Render(m.error))
	} else if m.info != "" {
		b.WriteString(SuccessStyle.Render(m.info))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) deckView() string {
	cards := m.ctrl.Cards()
	x, _ := m.cardOrigin()
	if len(cards) == 0 {
		msg := lipgloss.JoinVertical(lipgloss.Center,
			NameStyle.Render("No more cafes!"),
			MutedStyle.Render("press r to start over"))
		return lipgloss.NewStyle().MarginLeft(x).Width(CardWidth).Align(lipgloss.Center).Render(msg)
	}

	top := cards[0]
	card := renderCard(top, m.art[top.ID], m.feedback)
	cells := int(m.feedback.OffsetX) / m.opts.PixelsPerCell
	if m.exiting == top.ID {
		// on its way out during the settle delay
		cells = CardWidth / 2
		if m.feedback.OffsetX < 0 {
			cells = -cells
		}
	}

	parts := []string{shift(card, x, cells)}
	if sh := renderShadows(len(cards)); sh != "" {
		parts = append(parts, shift(sh, x, 0))
	}
	if m.loading {
		parts = append(parts, "  "+m.spinner.View()+" reloading…")
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) savedView() string {
	items := m.ctrl.Saved()
	if len(items) == 0 {
		return OverlayStyle.Render(MutedStyle.Render("Nothing saved yet. Swipe right on a cafe you like."))
	}
	lines := []string{NameStyle.Render("Saved cafes"), ""}
	for i, c := range items {
		lines = append(lines, fmt.Sprintf("%2d. %s  %s", i+1, c.Name, RatingStyle.Render(fmt.Sprintf("%.1f", c.Rating))))
	}
	return OverlayStyle.Render(strings.Join(lines, "\n"))
}
