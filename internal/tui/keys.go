package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the board's key bindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Grab    key.Binding
	Cancel  key.Binding
	Toggle  key.Binding
	Todo    key.Binding
	Doing   key.Binding
	Done    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap is the standard key layout.
var DefaultKeyMap = KeyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Grab:    key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "pick up/drop")),
	Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
	Toggle:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "list/board")),
	Todo:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "to do")),
	Doing:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "in progress")),
	Done:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "done")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Grab, k.Cancel, k.Toggle, k.Refresh, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Grab, k.Cancel, k.Toggle},
		{k.Todo, k.Doing, k.Done},
		{k.Refresh, k.Quit},
	}
}
