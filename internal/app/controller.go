package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"cafe_finder/internal/adapters/observability"
	"cafe_finder/internal/deck"
	"cafe_finder/internal/domain"
	"cafe_finder/internal/gesture"
)

// SavedList is the liked-cafes list the controller appends to.
type SavedList interface {
	Add(ctx context.Context, c domain.Cafe) (bool, error)
	Items() []domain.Cafe
	Contains(id string) bool
}

// SettleToken identifies a committed session awaiting its settle delay. It is
// only honoured against the deck generation it was issued for.
type SettleToken struct {
	Seq    uint64
	Gen    uint64
	Source string // drag|button
}

// Release is the result of a pointer release. Token is set when the release
// committed.
type Release struct {
	Outcome gesture.Outcome
	Token   *SettleToken
}

// Result describes what a decision did to the deck and the saved list.
type Result struct {
	Decision domain.Decision
	Cafe     domain.Cafe
	Applied  bool // the card was in the deck and got removed
	Saved    bool // the card was newly added to the saved list
}

type ReloadTicket struct{ n uint64 }

// Controller wires the tracker, the deck and the saved list. It is not safe
// for concurrent use: all calls come from one event loop, async work reports
// back through tickets and tokens.
type Controller struct {
	deck    *deck.Stack
	tracker *gesture.Tracker
	saved   SavedList
	source  domain.DataSource
	log     zerolog.Logger

	reloads uint64
	closed  bool
}

func NewController(src domain.DataSource, saved SavedList, log zerolog.Logger) *Controller {
	return &Controller{
		deck:    deck.New(),
		tracker: gesture.New(),
		saved:   saved,
		source:  src,
		log:     log,
	}
}

// PointerDown starts a drag when cardID is the top card.
func (c *Controller) PointerDown(cardID string, x, y float64) bool {
	if c.closed {
		return false
	}
	top, ok := c.deck.Top()
	return c.tracker.Begin(cardID, ok && top.ID == cardID, x, y)
}

func (c *Controller) PointerMove(x, y float64) (gesture.Feedback, bool) {
	return c.tracker.Move(x, y)
}

func (c *Controller) PointerUp(x, y float64) Release {
	out := c.tracker.Release(x, y)
	r := Release{Outcome: out}
	if out.Kind == gesture.Commit {
		r.Token = &SettleToken{Seq: out.Seq, Gen: c.deck.Generation(), Source: "drag"}
	}
	return r
}

// PointerCancel aborts a drag without side effects.
func (c *Controller) PointerCancel() gesture.Outcome { return c.tracker.Cancel() }

// SnapSettled ends a snap-back animation.
func (c *Controller) SnapSettled() { c.tracker.SnapSettled() }

// Settle applies the decision of the committed session behind tok once the
// settle delay has elapsed. Tokens from a previous deck, a closed controller
// or an already settled session are ignored.
func (c *Controller) Settle(ctx context.Context, tok SettleToken) (Result, error) {
	if c.closed || tok.Gen != c.deck.Generation() {
		c.log.Debug().Uint64("seq", tok.Seq).Msg("stale settle ignored")
		return Result{}, nil
	}
	d, ok := c.tracker.Settle(tok.Seq)
	if !ok {
		return Result{}, nil
	}
	return c.decide(ctx, d, tok.Source)
}

// OnSwipeDecision removes the decided card and saves it on a right swipe.
// Unknown ids are a no-op. A failed save still removes the card; the
// storage error is returned for display. While a gesture is committing the
// deck belongs to that gesture and the decision is dropped.
func (c *Controller) OnSwipeDecision(ctx context.Context, d domain.Decision) (Result, error) {
	if !d.Direction.Valid() {
		return Result{}, fmt.Errorf("direction %q: %w", d.Direction, domain.ErrValidation)
	}
	if c.tracker.State() == gesture.Committing {
		c.log.Debug().Str("id", d.CafeID).Msg("decision dropped while committing")
		return Result{Decision: d}, nil
	}
	return c.decide(ctx, d, "direct")
}

func (c *Controller) decide(ctx context.Context, d domain.Decision, source string) (Result, error) {
	if !d.Direction.Valid() {
		return Result{}, fmt.Errorf("direction %q: %w", d.Direction, domain.ErrValidation)
	}
	res := Result{Decision: d}
	cafe, ok := c.deck.Lookup(d.CafeID)
	if !ok {
		return res, nil
	}
	res.Cafe = cafe
	res.Applied = c.deck.Remove(d.CafeID)
	observability.ObserveSwipe(string(d.Direction), source)
	c.log.Info().Str("id", cafe.ID).Str("direction", string(d.Direction)).Int("left", c.deck.Len()).Msg("swipe decided")

	if d.Direction != domain.Right {
		return res, nil
	}
	added, err := c.saved.Add(ctx, cafe)
	res.Saved = added
	return res, err
}

// LikeTop commits the top card to the right through the settle path.
func (c *Controller) LikeTop() (SettleToken, bool) { return c.commitTop(domain.Right) }

// SkipTop commits the top card to the left through the settle path.
func (c *Controller) SkipTop() (SettleToken, bool) { return c.commitTop(domain.Left) }

func (c *Controller) commitTop(dir domain.Direction) (SettleToken, bool) {
	if c.closed {
		return SettleToken{}, false
	}
	top, ok := c.deck.Top()
	if !ok {
		return SettleToken{}, false
	}
	out, ok := c.tracker.CommitDirect(top.ID, dir)
	if !ok {
		return SettleToken{}, false
	}
	return SettleToken{Seq: out.Seq, Gen: c.deck.Generation(), Source: "button"}, true
}

// BeginReload issues a ticket that supersedes every earlier one.
func (c *Controller) BeginReload() ReloadTicket {
	c.reloads++
	return ReloadTicket{n: c.reloads}
}

// ApplyReload installs the result of a fetch started with t. It reports
// false when the ticket was superseded or the controller closed; such results
// are dropped. A fetch error or an invalid set leaves the deck unchanged.
func (c *Controller) ApplyReload(t ReloadTicket, cafes []domain.Cafe, fetchErr error) (bool, error) {
	if c.closed || t.n != c.reloads {
		c.log.Debug().Msg("stale reload result dropped")
		return false, nil
	}
	if fetchErr != nil {
		c.log.Warn().Err(fetchErr).Msg("reload failed")
		return false, fetchErr
	}
	if err := c.deck.Load(cafes); err != nil {
		c.log.Warn().Err(err).Msg("reload rejected")
		return false, err
	}
	c.tracker.Abort()
	c.log.Info().Int("cards", len(cafes)).Uint64("gen", c.deck.Generation()).Msg("deck loaded")
	return true, nil
}

// Reload fetches from the data source synchronously.
func (c *Controller) Reload(ctx context.Context) error {
	t := c.BeginReload()
	cafes, err := c.Fetch(ctx)
	_, err = c.ApplyReload(t, cafes, err)
	return err
}

// Fetch runs the data source without touching the deck. Callers pair it
// with a ticket from BeginReload.
func (c *Controller) Fetch(ctx context.Context) ([]domain.Cafe, error) {
	if c.source == nil {
		return nil, fmt.Errorf("no data source: %w", domain.ErrConfiguration)
	}
	return c.source.Fetch(ctx)
}

// InDeck reports whether an async result for id is still relevant.
func (c *Controller) InDeck(id string) bool { return !c.closed && c.deck.Contains(id) }

// Close tears the controller down. Pending settles and reloads are ignored
// afterwards.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.tracker.Abort()
	c.reloads++
}

func (c *Controller) Closed() bool { return c.closed }
func (c *Controller) Cards() []domain.Cafe { return c.deck.Cards() }
func (c *Controller) Top() (domain.Cafe, bool) { return c.deck.Top() }
func (c *Controller) Visual(id string) (deck.Visual, bool) { return c.deck.VisualState(id) }
func (c *Controller) Saved() []domain.Cafe { return c.saved.Items() }
func (c *Controller) State() gesture.State { return c.tracker.State() }
func (c *Controller) Session() (gesture.Session, bool) { return c.tracker.Session() }
