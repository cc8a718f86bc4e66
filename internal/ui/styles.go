package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorBase   = lipgloss.Color("#1E1A17")
	ColorCrema  = lipgloss.Color("#E8D5B7")
	ColorMuted  = lipgloss.Color("#8C7B6B")
	ColorAccent = lipgloss.Color("#C8865A")
	ColorGreen  = lipgloss.Color("#a6e3a1")
	ColorRed    = lipgloss.Color("#f38ba8")
	ColorYellow = lipgloss.Color("#f9e2af")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			Foreground(ColorCrema).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 1)

	LikeCardStyle = CardStyle.BorderForeground(ColorGreen)
	SkipCardStyle = CardStyle.BorderForeground(ColorRed)

	ShadowStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	NameStyle = lipgloss.NewStyle().
			Foreground(ColorCrema).
			Bold(true)

	RatingStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	OpenStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	ClosedStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	LikeStampStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorGreen).
			Padding(0, 1)

	SkipStampStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorRed).
			Padding(0, 1)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Padding(0, 1)

	OverlayStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 2)
)
