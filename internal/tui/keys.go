package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Open  key.Binding
	Get   key.Binding
	Set   key.Binding
	Enter key.Binding
	Focus key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Open:  key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open file")),
	Get:   key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "get value")),
	Set:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "set value")),
	Enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "get/set")),
	Focus: key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch field")),
	Quit:  key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Enter, k.Get, k.Set, k.Focus, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var (
	yesKey     = key.NewBinding(key.WithKeys("y", "Y", "enter"))
	noKey      = key.NewBinding(key.WithKeys("n", "N", "esc"))
	dismissKey = key.NewBinding(key.WithKeys("enter", "esc", " "))
	cancelKey  = key.NewBinding(key.WithKeys("esc"))
)
