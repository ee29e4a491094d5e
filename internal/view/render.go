package view

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/six78/arena-cli/internal/config"
)

var (
	foregroundShadeStyle = lipgloss.NewStyle().Foreground(config.ForegroundShadeColor)
	nameStyle            = lipgloss.NewStyle().Bold(true)
)

func (m model) renderSession() string {
	blocks := []string{
		m.renderHeader(),
		"",
		m.renderRoom(),
	}
	for _, block := range []string{
		m.invitationsView.View(),
		m.duelView.View(),
		m.teamView.View(),
	} {
		if block != "" {
			blocks = append(blocks, "", block)
		}
	}
	blocks = append(blocks,
		"",
		m.renderActionInput(),
		m.errorView.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Top, blocks...)
}

func (m model) renderHeader() string {
	name := m.profile.Info.Name
	if name == "" {
		name = string(m.profile.UserID)
	}
	style := nameStyle
	if m.profile.Info.Color != "" {
		style = style.Foreground(lipgloss.Color(m.profile.Info.Color))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		m.statusView.View(),
		foregroundShadeStyle.Render("  as "),
		style.Render(name),
	)
}

func (m model) renderRoom() string {
	if m.state.RoomID.Empty() {
		return "Join a room or create a new one ..."
	}
	return m.rosterView.View()
}

func (m model) renderActionInput() string {
	return lipgloss.JoinVertical(lipgloss.Top,
		m.input.View(),
		m.shortcutsView.View(),
	)
}

func renderLogPath() string {
	if config.LogFilePath == "" {
		return ""
	}
	return foregroundShadeStyle.Render("Log file: " + config.LogFilePath)
}
