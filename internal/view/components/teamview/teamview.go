package teamview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/internal/view/messages"
	"github.com/six78/arena-cli/pkg/protocol"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	shadeStyle  = lipgloss.NewStyle().Foreground(config.ForegroundShadeColor)
)

type Model struct {
	team *protocol.Team
	bar  progress.Model
}

func New() Model {
	return Model{
		bar: progress.New(
			progress.WithSolidFill("#7D56F4"),
			progress.WithWidth(30),
		),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) Model {
	switch msg := msg.(type) {
	case messages.StateMessage:
		m.team = msg.Team
	}
	return m
}

func (m Model) View() string {
	if m.team == nil {
		return ""
	}

	name := m.team.Name
	if name == "" {
		name = string(m.team.ID)
	}
	members := make([]string, 0, len(m.team.Members))
	for _, member := range m.team.Members {
		if member.Name != "" {
			members = append(members, member.Name)
		} else {
			members = append(members, string(member.UserID))
		}
	}

	rows := []string{
		headerStyle.Render("Team "+name) + " " + shadeStyle.Render(strings.Join(members, ", ")),
	}

	mission := m.team.Mission
	if mission == nil {
		rows = append(rows, shadeStyle.Render("  no active mission"))
		return strings.Join(rows, "\n")
	}

	rows = append(rows, fmt.Sprintf("  %s %s", mission.Name, m.bar.ViewAs(mission.Progress/100)))
	for _, contribution := range mission.Contributions {
		rows = append(rows, shadeStyle.Render(fmt.Sprintf("    %s: %.0f%%", contribution.UserID, contribution.Progress)))
	}
	return strings.Join(rows, "\n")
}
