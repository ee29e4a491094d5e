package shortcutsview

import (
	bubblekey "github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/six78/arena-cli/internal/view/commands"
	"github.com/six78/arena-cli/internal/view/messages"
)

const bigSeparator = "  "

var (
	keyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	textStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

type Model struct {
	commandMode    bool
	inRoom         bool
	hasInvitations bool
}

func New() Model {
	return Model{}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) Model {
	switch msg := msg.(type) {
	case messages.CommandModeChange:
		m.commandMode = msg.CommandMode
	case messages.StateMessage:
		m.inRoom = !msg.RoomID.Empty()
		m.hasInvitations = len(msg.Invitations) > 0
	}
	return m
}

func (m Model) View() string {
	keys := commands.DefaultKeyMap

	var row string
	if m.commandMode {
		row = text("Type a command and press ") + key(enter) + text(" to run it") + bigSeparator
	} else {
		if m.inRoom {
			row += keyHelp(keys.ExitRoom) + bigSeparator
		} else {
			row += keyHelp(keys.NewRoom) + bigSeparator
		}
		if m.hasInvitations {
			row += keyHelp(keys.AcceptInvitation) + bigSeparator +
				keyHelp(keys.RejectInvitation) + bigSeparator
		}
	}
	row += keyHelp(keys.CommandMode) + bigSeparator + keyHelp(keys.Quit)
	return row
}

var enter = bubblekey.NewBinding(bubblekey.WithHelp("Enter", ""))

func key(binding bubblekey.Binding) string {
	return keyStyle.Render(binding.Help().Key)
}

func text(s string) string {
	return textStyle.Render(s)
}

func keyHelp(binding bubblekey.Binding) string {
	return key(binding) + text(" "+binding.Help().Desc)
}
