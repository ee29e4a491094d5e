package duelview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/internal/view/messages"
	"github.com/six78/arena-cli/pkg/protocol"
	"github.com/six78/arena-cli/pkg/session"
)

const barWidth = 30

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	shadeStyle  = lipgloss.NewStyle().Foreground(config.ForegroundShadeColor)
	winStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00E676"))
	loseStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5722"))
)

type Model struct {
	userID protocol.UserID
	duel   *protocol.Duel
	status protocol.DuelStatus
	result *session.DuelResult
	roster protocol.Roster
	bar    progress.Model
	now    func() time.Time
}

func New(userID protocol.UserID, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	return Model{
		userID: userID,
		status: protocol.DuelNone,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(barWidth),
		),
		now: now,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) Model {
	switch msg := msg.(type) {
	case messages.StateMessage:
		m.duel = msg.Duel
		m.status = msg.DuelStatus
		m.result = msg.LastResult
		m.roster = msg.Roster
	}
	return m
}

func (m Model) name(userID protocol.UserID) string {
	if userID == m.userID {
		return "You"
	}
	if participant, ok := m.roster[userID]; ok && participant.Name != "" {
		return participant.Name
	}
	return string(userID)
}

func (m Model) View() string {
	if m.duel == nil {
		return m.renderResult()
	}

	title := "Duel"
	if m.duel.ChallengeName != "" {
		title += ": " + m.duel.ChallengeName
	}
	rows := []string{headerStyle.Render(title) + " " + shadeStyle.Render(m.renderRemaining())}

	for _, participant := range m.duel.Participants {
		rows = append(rows, fmt.Sprintf("  %-12s %s",
			m.name(participant.UserID),
			m.bar.ViewAs(participant.Progress/100),
		))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderRemaining() string {
	if m.status == protocol.DuelFinished {
		return "time is up"
	}
	if m.duel.EndTime == 0 {
		return ""
	}
	// EndTime has millisecond precision, round the rest up to whole seconds
	remaining := time.UnixMilli(m.duel.EndTime).Sub(m.now())
	if remaining < 0 {
		remaining = 0
	}
	remaining = (remaining + time.Second - 1).Truncate(time.Second)
	return remaining.String() + " left"
}

func (m Model) renderResult() string {
	if m.result == nil {
		return ""
	}
	switch m.result.WinnerID {
	case "":
		return shadeStyle.Render("Last duel ended without a winner")
	case m.userID:
		return winStyle.Render("You won the last duel")
	default:
		return loseStyle.Render(fmt.Sprintf("%s won the last duel", m.name(m.result.WinnerID)))
	}
}
