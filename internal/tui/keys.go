package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit   key.Binding
	Help   key.Binding
	Prev   key.Binding
	Next   key.Binding
	Today  key.Binding
	Day    key.Binding
	Week   key.Binding
	Month  key.Binding
	Group  key.Binding
	Color  key.Binding
	Edit   key.Binding
	Filter key.Binding
	Up     key.Binding
	Down   key.Binding
	// Gesture keys act on the selected leaf in edit mode
	Earlier  key.Binding
	Later    key.Binding
	Shorter  key.Binding
	Longer   key.Binding
	Commit   key.Binding
	Cancel   key.Binding
	Collapse key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Edit, k.Later, k.Commit, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.Today, k.Day, k.Week, k.Month},
		{k.Up, k.Down, k.Collapse, k.Group, k.Color, k.Filter},
		{k.Edit, k.Earlier, k.Later, k.Shorter, k.Longer, k.Commit, k.Cancel},
		{k.Help, k.Quit},
	}
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Prev: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("←/h", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("→/l", "next"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "today"),
		),
		Day: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "day view"),
		),
		Week: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "week view"),
		),
		Month: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "month view"),
		),
		Group: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "cycle grouping"),
		),
		Color: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle colors"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit mode"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter groups"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k", "["),
			key.WithHelp("↑/k/[", "select previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j", "]"),
			key.WithHelp("↓/j/]", "select next"),
		),
		Earlier: key.NewBinding(
			key.WithKeys("shift+left"),
			key.WithHelp("shift+←", "move earlier"),
		),
		Later: key.NewBinding(
			key.WithKeys("shift+right"),
			key.WithHelp("shift+→", "move later"),
		),
		Shorter: key.NewBinding(
			key.WithKeys("shift+up"),
			key.WithHelp("shift+↑", "end earlier"),
		),
		Longer: key.NewBinding(
			key.WithKeys("shift+down"),
			key.WithHelp("shift+↓", "end later"),
		),
		Commit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "commit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Collapse: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "collapse group"),
		),
	}
}
