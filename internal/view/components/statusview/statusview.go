package statusview

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/six78/arena-cli/internal/view/messages"
	"github.com/six78/arena-cli/pkg/session"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00E676"))
	dangerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5722"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

type Model struct {
	status  session.ConnectionState
	spinner spinner.Model
}

func New() Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	return Model{
		status:  session.Disconnected,
		spinner: s,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.StateMessage:
		m.status = msg.Status
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) Status() session.ConnectionState {
	return m.status
}

func (m Model) View() string {
	var marker, text string
	switch m.status {
	case session.Connected:
		marker = okStyle.Render("●")
		text = "Connected"
	case session.Connecting:
		marker = m.spinner.View()
		text = "Connecting..."
	default:
		marker = dangerStyle.Render("●")
		text = "Disconnected"
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, marker, " ", textStyle.Render(text))
}
