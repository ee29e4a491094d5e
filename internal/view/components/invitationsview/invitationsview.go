package invitationsview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/internal/view/commands"
	"github.com/six78/arena-cli/internal/view/messages"
	"github.com/six78/arena-cli/pkg/protocol"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(config.UserColor)
	shadeStyle    = lipgloss.NewStyle().Foreground(config.ForegroundShadeColor)
)

type Model struct {
	invitations []protocol.Invitation
	cursor      int
	focused     bool
}

func New() Model {
	return Model{focused: true}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) Model {
	switch msg := msg.(type) {
	case messages.StateMessage:
		m.invitations = msg.Invitations
		m.adjustCursor()
	case messages.CommandModeChange:
		m.focused = !msg.CommandMode
	case tea.KeyMsg:
		if !m.focused {
			break
		}
		switch {
		case key.Matches(msg, commands.DefaultKeyMap.PreviousInvitation):
			m.cursor--
			m.adjustCursor()
		case key.Matches(msg, commands.DefaultKeyMap.NextInvitation):
			m.cursor++
			m.adjustCursor()
		}
	}
	return m
}

func (m *Model) adjustCursor() {
	if m.cursor >= len(m.invitations) {
		m.cursor = len(m.invitations) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Selected returns the invitation under the cursor, nil when there are none.
func (m Model) Selected() *protocol.Invitation {
	if len(m.invitations) == 0 {
		return nil
	}
	invitation := m.invitations[m.cursor]
	return &invitation
}

func (m Model) Cursor() int {
	return m.cursor
}

func (m Model) View() string {
	if len(m.invitations) == 0 {
		return ""
	}

	rows := []string{headerStyle.Render("Invitations")}
	for i, invitation := range m.invitations {
		from := invitation.FromUserName
		if from == "" {
			from = string(invitation.FromUserID)
		}
		row := fmt.Sprintf("%s challenges you", from)
		if name := invitation.ChallengeConfig.Name; name != "" {
			row += fmt.Sprintf(" to %s", name)
		}
		if seconds := invitation.ChallengeConfig.DurationSeconds; seconds > 0 {
			row += shadeStyle.Render(fmt.Sprintf(" (%ds)", seconds))
		}
		if i == m.cursor && m.focused {
			rows = append(rows, selectedStyle.Render("> ")+row)
		} else {
			rows = append(rows, "  "+row)
		}
	}
	return strings.Join(rows, "\n")
}
