package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings shared by both list views.
type KeyMap struct {
	Quit    key.Binding
	Back    key.Binding
	Enter   key.Binding
	Up      key.Binding
	Down    key.Binding
	Tab     key.Binding
	New     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Status  key.Binding
	Toggle  key.Binding
	CheckIn key.Binding
	Notify  key.Binding
	Filter  key.Binding
	More    key.Binding
	Reload  key.Binding
	Help    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("↵", "select")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Status:  key.NewBinding(key.WithKeys("s", " "), key.WithHelp("s", "cycle status")),
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
		CheckIn: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "check in")),
		Notify:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "test notification")),
		Filter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		More:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "more")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}
