package commands

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	// Common
	CommandMode key.Binding
	Quit        key.Binding
	// Lobby
	NewRoom key.Binding
	// Room
	ExitRoom key.Binding
	// Invitations
	NextInvitation     key.Binding
	PreviousInvitation key.Binding
	AcceptInvitation   key.Binding
	RejectInvitation   key.Binding
}

var DefaultKeyMap = KeyMap{
	// Common
	CommandMode: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("Shift+Tab", "Toggle command mode"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("Ctrl+C", "Quit"),
	),
	// Lobby
	NewRoom: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("N", "New room"),
	),
	// Room
	ExitRoom: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("E", "Exit room"),
	),
	// Invitations
	NextInvitation: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "Next invitation"),
	),
	PreviousInvitation: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "Previous invitation"),
	),
	AcceptInvitation: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("A", "Accept"),
	),
	RejectInvitation: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("R", "Reject"),
	),
}
