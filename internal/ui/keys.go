package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the deck keybindings.
type KeyMap struct {
	Skip   key.Binding
	Like   key.Binding
	Reload key.Binding
	Saved  key.Binding
	Cancel key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Skip: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "skip"),
		),
		Like: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "like"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "start over"),
		),
		Saved: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "saved"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel drag"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Skip, k.Like, k.Saved, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Skip, k.Like, k.Cancel},
		{k.Reload, k.Saved},
		{k.Help, k.Quit},
	}
}
