package keyboard

import "github.com/charmbracelet/bubbles/key"

type Map struct {
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	UpdateNow  key.Binding
	ToggleLogs key.Binding
	Follow     key.Binding
	Debug      key.Binding
	Quit       key.Binding
}

func New() Map {
	return Map{
		Up: key.NewBinding(
			key.WithKeys("up", "k", "shift+tab"),
			key.WithHelp("↑/k", "prev view"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j", "tab"),
			key.WithHelp("↓/j", "next view"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "use view"),
		),
		UpdateNow: key.NewBinding(
			key.WithKeys("u", "ctrl+r"),
			key.WithHelp("u", "update now"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "logs"),
		),
		Follow: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "follow logs"),
		),
		Debug: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "debug"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (m Map) ShortHelp() []key.Binding {
	return []key.Binding{m.Down, m.Select, m.UpdateNow, m.ToggleLogs, m.Quit}
}

func (m Map) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.Up, m.Down, m.Select},
		{m.UpdateNow, m.ToggleLogs, m.Follow},
		{m.Debug, m.Quit},
	}
}
