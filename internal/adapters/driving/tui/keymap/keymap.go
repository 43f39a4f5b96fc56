// Package keymap defines keybindings for the TUI.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the bindings of every screen. Screens share keys where the
// gesture means the same thing (esc leaves, enter commits).
type KeyMap struct {
	// App-wide.
	Quit     key.Binding
	Help     key.Binding
	Back     key.Binding
	Folders  key.Binding
	Settings key.Binding

	// Search screen: the query box, the running stages and the result list.
	Search    key.Binding
	Cancel    key.Binding
	NewSearch key.Binding
	Open      key.Binding
	Up        key.Binding
	Down      key.Binding

	// File screen scrolling beyond Up and Down.
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	// Settings screen threshold editor.
	Lower key.Binding
	Raise key.Binding
	Save  key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:     bind("q", "quit", "q", "ctrl+c"),
		Help:     bind("?", "help", "?"),
		Back:     bind("esc", "back to search", "esc"),
		Folders:  bind("tab", "browse folders", "tab"),
		Settings: bind("ctrl+s", "settings", "ctrl+s"),

		Search:    bind("enter", "run search", "enter"),
		Cancel:    bind("esc", "stop the running stage", "esc"),
		NewSearch: bind("n", "new query", "n", "/"),
		Open:      bind("enter", "open pointed file", "enter"),
		Up:        bind("↑/k", "previous", "up", "k"),
		Down:      bind("↓/j", "next", "down", "j"),

		PageUp:   bind("pgup", "page up", "pgup", "ctrl+u"),
		PageDown: bind("pgdn", "page down", "pgdown", "ctrl+d"),
		Top:      bind("g", "first item", "home", "g"),
		Bottom:   bind("G", "last item", "end", "G"),

		Lower: bind("←/h", "lower threshold", "left", "h", "-"),
		Raise: bind("→/l", "raise threshold", "right", "l", "+"),
		Save:  bind("enter", "save threshold", "enter"),
	}
}

// ShortHelp returns the bindings shown in the status bar while typing a query.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Folders, k.Help}
}

// SearchingHelp returns the bindings shown while stages run.
func (k *KeyMap) SearchingHelp() []key.Binding {
	return []key.Binding{k.Cancel}
}

// ResultsHelp returns the bindings shown under the result list.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.Open, k.NewSearch, k.Up, k.Down, k.Folders, k.Quit}
}

// FullHelp returns one column per screen for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Cancel, k.Up, k.Down, k.Open, k.NewSearch},
		{k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Lower, k.Raise, k.Save},
		{k.Folders, k.Settings, k.Back, k.Help, k.Quit},
	}
}

// Matches reports whether keyStr, as produced by tea.KeyMsg.String, is bound.
func Matches(keyStr string, binding key.Binding) bool {
	return keyStr != "" && slices.Contains(binding.Keys(), keyStr)
}
