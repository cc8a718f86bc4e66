package ui

import (
	"cafe_finder/internal/app"
	"cafe_finder/internal/domain"
)

// Bubble Tea message types

// deckLoadedMsg carries the result of a reload started with ticket.
type deckLoadedMsg struct {
	ticket app.ReloadTicket
	cafes  []domain.Cafe
	err    error
}

// settleMsg fires when the settle delay of a committed swipe has elapsed.
type settleMsg struct{ token app.SettleToken }

// snapDoneMsg ends a snap-back animation.
type snapDoneMsg struct{}

// photoMsg is a rendered photo for a card, possibly no longer in the deck.
type photoMsg struct {
	cafeID string
	art    string
	err    error
}
