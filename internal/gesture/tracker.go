// Package gesture turns pointer drag sequences on the top card into swipe
// decisions.
//
// A Tracker owns at most one drag session at a time. Every exit path (release
// below threshold, cancel, settle, abort) ends the session, so a lost release
// can never leave a ghost drag blocking the next press.
package gesture

import (
	"math"
	"time"

	"cafe_finder/internal/domain"
)

const (
	Threshold      = 100.0 // logical px of |deltaX| needed to commit
	RotationFactor = 0.05  // degrees per px of deltaX
	ExitOffset     = 1000.0
	// AffinityFraction of Threshold after which the drag shows a like/skip hint.
	AffinityFraction   = 0.25
	DefaultSettleDelay = 200 * time.Millisecond
)

type State int

const (
	Idle State = iota
	Dragging
	Committing
	SnappingBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	case SnappingBack:
		return "snapping_back"
	}
	return "unknown"
}

type Affinity int

const (
	AffinityNone Affinity = iota
	AffinityLike
	AffinitySkip
)

// Feedback is the continuous visual state of a drag.
type Feedback struct {
	OffsetX  float64
	Rotation float64
	Affinity Affinity
}

// Session is the live drag on one card.
type Session struct {
	CardID string
	StartX float64
	StartY float64
	DeltaX float64
	ExitX  float64 // set once committing
	dir    domain.Direction
	seq    uint64
}

type OutcomeKind int

const (
	Ignored OutcomeKind = iota
	SnapBack
	Commit
)

// Outcome of a release or cancel. Seq identifies the pending settle when
// Kind is Commit.
type Outcome struct {
	Kind      OutcomeKind
	CardID    string
	Direction domain.Direction
	ExitX     float64
	Seq       uint64
}

type Tracker struct {
	state   State
	session *Session
	seq     uint64
}

func New() *Tracker { return &Tracker{} }

func (t *Tracker) State() State { return t.state }

// Session returns a copy of the active session, if any.
func (t *Tracker) Session() (Session, bool) {
	if t.session == nil {
		return Session{}, false
	}
	return *t.session, true
}

// Active reports whether a session holds the pointer or awaits its settle.
func (t *Tracker) Active() bool { return t.state == Dragging || t.state == Committing }

func (t *Tracker) acceptsPress() bool { return t.state == Idle || t.state == SnappingBack }

// Begin starts a drag on cardID. Only the top card may start a session and
// only while no other session is dragging or committing.
func (t *Tracker) Begin(cardID string, isTop bool, x, y float64) bool {
	if !isTop || cardID == "" || !t.acceptsPress() {
		return false
	}
	t.seq++
	t.session = &Session{CardID: cardID, StartX: x, StartY: y, seq: t.seq}
	t.state = Dragging
	return true
}

// Move updates the drag offset. It reports false when no drag is active.
func (t *Tracker) Move(x, y float64) (Feedback, bool) {
	if t.state != Dragging {
		return Feedback{}, false
	}
	t.session.DeltaX = x - t.session.StartX
	return FeedbackFor(t.session.DeltaX), true
}

// FeedbackFor computes the drag visuals for a horizontal offset.
func FeedbackFor(dx float64) Feedback {
	f := Feedback{OffsetX: dx, Rotation: dx * RotationFactor}
	if math.Abs(dx) >= AffinityFraction*Threshold {
		if dx > 0 {
			f.Affinity = AffinityLike
		} else {
			f.Affinity = AffinitySkip
		}
	}
	return f
}

// Release ends the drag at (x, y). At or past the threshold the session
// commits and waits for Settle; otherwise it snaps back.
func (t *Tracker) Release(x, y float64) Outcome {
	if t.state != Dragging {
		return Outcome{Kind: Ignored}
	}
	s := t.session
	s.DeltaX = x - s.StartX
	if math.Abs(s.DeltaX) < Threshold {
		return t.snapBack()
	}
	s.dir = domain.Left
	s.ExitX = -ExitOffset
	if s.DeltaX > 0 {
		s.dir = domain.Right
		s.ExitX = ExitOffset
	}
	t.state = Committing
	return Outcome{Kind: Commit, CardID: s.CardID, Direction: s.dir, ExitX: s.ExitX, Seq: s.seq}
}

// Cancel aborts a drag without a decision, whatever its magnitude.
func (t *Tracker) Cancel() Outcome {
	if t.state != Dragging {
		return Outcome{Kind: Ignored}
	}
	return t.snapBack()
}

func (t *Tracker) snapBack() Outcome {
	id := t.session.CardID
	t.session = nil
	t.state = SnappingBack
	return Outcome{Kind: SnapBack, CardID: id}
}

// CommitDirect synthesizes a committed session without a physical drag.
func (t *Tracker) CommitDirect(cardID string, dir domain.Direction) (Outcome, bool) {
	if cardID == "" || !dir.Valid() || !t.acceptsPress() {
		return Outcome{Kind: Ignored}, false
	}
	t.seq++
	exit := -ExitOffset
	if dir == domain.Right {
		exit = ExitOffset
	}
	t.session = &Session{CardID: cardID, ExitX: exit, dir: dir, seq: t.seq}
	t.state = Committing
	return Outcome{Kind: Commit, CardID: cardID, Direction: dir, ExitX: exit, Seq: t.seq}, true
}

// Settle emits the decision of the committing session identified by seq.
// It fires at most once per session; stale or repeated seqs return false.
func (t *Tracker) Settle(seq uint64) (domain.Decision, bool) {
	if t.state != Committing || t.session == nil || t.session.seq != seq {
		return domain.Decision{}, false
	}
	d := domain.Decision{Direction: t.session.dir, CafeID: t.session.CardID}
	t.session = nil
	t.state = Idle
	return d, true
}

// SnapSettled marks the end of a snap-back animation.
func (t *Tracker) SnapSettled() {
	if t.state == SnappingBack {
		t.state = Idle
	}
}

// Abort drops any session. Pending settles become stale.
func (t *Tracker) Abort() {
	t.session = nil
	t.state = Idle
	t.seq++
}
