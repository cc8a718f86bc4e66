package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cafe_finder/internal/deck"
	"cafe_finder/internal/domain"
	"cafe_finder/internal/gesture"
)

const (
	CardWidth  = 44 // outer width in cells, border included
	PhotoLines = 10
)

// cardInner is the content width inside border and padding.
const cardInner = CardWidth - 4

func ratingStars(r float64) string {
	full := int(math.Round(r))
	if full > 5 {
		full = 5
	}
	if full < 0 {
		full = 0
	}
	return strings.Repeat("★", full) + strings.Repeat("☆", 5-full) + fmt.Sprintf(" %.1f", r)
}

func openBadge(open *bool) string {
	switch {
	case open == nil:
		return MutedStyle.Render("hours unknown")
	case *open:
		return OpenStyle.Render("● Open now")
	default:
		return ClosedStyle.Render("● Closed")
	}
}

// renderCard draws the top card. art is the ASCII photo or "" while loading.
func renderCard(c domain.Cafe, art string, fb gesture.Feedback) string {
	photo := art
	if photo == "" {
		photo = lipgloss.Place(cardInner, PhotoLines, lipgloss.Center, lipgloss.Center, MutedStyle.Render("☕ loading photo…"))
	}

	name := NameStyle.Render(truncate(c.Name, cardInner))
	meta := RatingStyle.Render(ratingStars(c.Rating)) + "  " + openBadge(c.OpenNow)

	var stamp string
	style := CardStyle
	switch fb.Affinity {
	case gesture.AffinityLike:
		stamp, style = LikeStampStyle.Render("LIKE"), LikeCardStyle
	case gesture.AffinitySkip:
		stamp, style = SkipStampStyle.Render("NOPE"), SkipCardStyle
	}

	body := lipgloss.JoinVertical(lipgloss.Left, photo, "", name, meta)
	if stamp != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, stamp, body)
	}
	return style.Width(CardWidth - 2).Render(body)
}

// renderShadows draws the edges of the cards under the top one, narrowing
// with depth. Invisible positions are skipped.
func renderShadows(n int) string {
	var lines []string
	for i := 1; i < n; i++ {
		v := deck.VisualAt(i)
		if v.Opacity == 0 {
			break
		}
		w := int(float64(CardWidth) * v.Scale)
		pad := (CardWidth - w) / 2
		lines = append(lines, strings.Repeat(" ", pad)+ShadowStyle.Render("╰"+strings.Repeat("─", w-2)+"╯"))
	}
	return strings.Join(lines, "\n")
}

// shift moves a rendered block horizontally by cells, clipped at the left edge.
func shift(block string, base, cells int) string {
	off := base + cells
	if off < 0 {
		off = 0
	}
	return lipgloss.NewStyle().MarginLeft(off).Render(block)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
