package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	ToggleBell key.Binding
	SwitchView key.Binding
	Logs       key.Binding
	Escape     key.Binding

	// Sets
	Up       key.Binding
	Down     key.Binding
	Add      key.Binding
	Delete   key.Binding
	Complete key.Binding
	Edit     key.Binding
	Confirm  key.Binding

	// Session
	NextExercise key.Binding
	PrevExercise key.Binding

	// Rest timer
	StartRest key.Binding
	PauseRest key.Binding
	ResetRest key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		ToggleBell: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "Toggle bell"),
		),
		SwitchView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Exercise/overview"),
		),
		Logs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Client log"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "Previous set"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "Next set"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add set"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "Delete set"),
		),
		Complete: key.NewBinding(
			key.WithKeys(" ", "c"),
			key.WithHelp("space", "Toggle done"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Edit facts"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Save"),
		),

		NextExercise: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Next exercise"),
		),
		PrevExercise: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Previous exercise"),
		),

		StartRest: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Start rest"),
		),
		PauseRest: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Pause/resume rest"),
		),
		ResetRest: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reset rest"),
		),
		MoveLeft: key.NewBinding(
			key.WithKeys("H", "shift+left"),
			key.WithHelp("H", "Move timer left"),
		),
		MoveRight: key.NewBinding(
			key.WithKeys("L", "shift+right"),
			key.WithHelp("L", "Move timer right"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "Move timer up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "Move timer down"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Complete, k.Add, k.Edit, k.StartRest, k.SwitchView, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Complete, k.Add, k.Delete, k.Edit},
		{k.StartRest, k.PauseRest, k.ResetRest, k.NextExercise, k.PrevExercise},
		{k.MoveLeft, k.MoveRight, k.MoveUp, k.MoveDown},
		{k.SwitchView, k.Logs, k.CycleTheme, k.ToggleBell, k.Help, k.Quit},
	}
}
