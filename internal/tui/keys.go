package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Blink   key.Binding
	Pause   key.Binding
	Clear   key.Binding
	Save    key.Binding
	Copy    key.Binding
	Restart key.Binding
	Drill   key.Binding
	Theme   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Blink: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "close/open eyes"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy"),
		),
		Restart: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new session"),
		),
		Drill: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "set drill"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "light/dark"),
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
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Blink, k.Pause, k.Save, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Blink, k.Pause, k.Clear},
		{k.Save, k.Copy, k.Restart},
		{k.Drill, k.Theme},
		{k.Help, k.Quit},
	}
}
