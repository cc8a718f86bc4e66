// Package deck holds the ordered stack of undecided cafes.
//
// The first element of the order is the top card: it is the only interactive
// card, it is what Top returns, and it sits at position 0 for VisualAt.
package deck

import (
	"fmt"

	"cafe_finder/internal/domain"
)

const (
	BaseZIndex   = 100
	ScaleStep    = 0.05
	OffsetStep   = 15
	VisibleDepth = 2 // positions deeper than this are fully transparent
)

// Visual is the render-only transform of a card at a given depth.
type Visual struct {
	Scale       float64
	OffsetY     int
	ZIndex      int
	Opacity     float64
	Interactive bool
}

// VisualAt returns the transform for the card i positions below the top.
func VisualAt(i int) Visual {
	v := Visual{
		Scale:       1 - float64(i)*ScaleStep,
		OffsetY:     i * OffsetStep,
		ZIndex:      BaseZIndex - i,
		Opacity:     1,
		Interactive: i == 0,
	}
	if i > VisibleDepth {
		v.Opacity = 0
	}
	return v
}

type Stack struct {
	cards []domain.Cafe
	gen   uint64
}

func New() *Stack { return &Stack{} }

// Load replaces the deck. A set with duplicate or empty ids is rejected and
// the current deck is left untouched.
func (s *Stack) Load(items []domain.Cafe) error {
	seen := make(map[string]struct{}, len(items))
	for i, c := range items {
		if c.ID == "" {
			return fmt.Errorf("deck load: item %d has empty id: %w", i, domain.ErrValidation)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("deck load: duplicate id %q: %w", c.ID, domain.ErrValidation)
		}
		seen[c.ID] = struct{}{}
	}
	cards := make([]domain.Cafe, len(items))
	copy(cards, items)
	s.cards = cards
	s.gen++
	return nil
}

// Reset swaps in a freshly fetched or reseeded set.
func (s *Stack) Reset(items []domain.Cafe) error { return s.Load(items) }

// Remove drops the card with the given id. Absent ids are a no-op.
func (s *Stack) Remove(id string) bool {
	i, ok := s.Position(id)
	if !ok {
		return false
	}
	out := make([]domain.Cafe, 0, len(s.cards)-1)
	out = append(out, s.cards[:i]...)
	out = append(out, s.cards[i+1:]...)
	s.cards = out
	return true
}

func (s *Stack) Top() (domain.Cafe, bool) {
	if len(s.cards) == 0 {
		return domain.Cafe{}, false
	}
	return s.cards[0], true
}

func (s *Stack) Position(id string) (int, bool) {
	for i, c := range s.cards {
		if c.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Stack) Lookup(id string) (domain.Cafe, bool) {
	i, ok := s.Position(id)
	if !ok {
		return domain.Cafe{}, false
	}
	return s.cards[i], true
}

func (s *Stack) Contains(id string) bool {
	_, ok := s.Position(id)
	return ok
}

// VisualState is VisualAt for the card's current position.
func (s *Stack) VisualState(id string) (Visual, bool) {
	i, ok := s.Position(id)
	if !ok {
		return Visual{}, false
	}
	return VisualAt(i), true
}

func (s *Stack) Len() int { return len(s.cards) }

// Cards returns a copy of the current order, top first.
func (s *Stack) Cards() []domain.Cafe {
	out := make([]domain.Cafe, len(s.cards))
	copy(out, s.cards)
	return out
}

// Generation changes on every successful Load/Reset.
func (s *Stack) Generation() uint64 { return s.gen }
