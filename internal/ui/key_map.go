package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	search  key.Binding
	pane    key.Binding
	toggle  key.Binding
	reload  key.Binding
	artwork key.Binding
	history key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		pane:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		artwork: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "artwork")),
		history: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "history")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.enter, k.toggle, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.pane},
		{k.search, k.back, k.toggle},
		{k.reload, k.artwork, k.history, k.quit},
	}
}
