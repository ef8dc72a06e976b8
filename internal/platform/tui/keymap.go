package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// EditorKeyMap defines the key bindings for the editor screen.
type EditorKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Paint     key.Binding
	Clear     key.Binding
	NextTile  key.Binding
	PrevTile  key.Binding
	NextSheet key.Binding
	PrevSheet key.Binding
	Import    key.Binding
	Save      key.Binding
	Load      key.Binding
	Help      key.Binding
	Dismiss   key.Binding
	Quit      key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k EditorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Paint, k.Clear, k.NextTile, k.Import, k.Save, k.Load, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k EditorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Paint, k.Clear, k.NextTile, k.PrevTile, k.NextSheet, k.PrevSheet},
		{k.Import, k.Save, k.Load},
		{k.Help, k.Dismiss, k.Quit},
	}
}

// DefaultEditorKeyMap returns default key bindings.
func DefaultEditorKeyMap() EditorKeyMap {
	return EditorKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "cursor up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "cursor down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left/h", "cursor left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right/l", "cursor right"),
		),
		Paint: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "paint"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x", "delete", "backspace"),
			key.WithHelp("x", "clear"),
		),
		NextTile: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tile"),
		),
		PrevTile: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "prev tile"),
		),
		NextSheet: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next sheet"),
		),
		PrevSheet: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev sheet"),
		),
		Import: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "import"),
		),
		Save: key.NewBinding(
			key.WithKeys("s", "ctrl+s"),
			key.WithHelp("s", "save"),
		),
		Load: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
