package rosterview

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/internal/view/messages"
	"github.com/six78/arena-cli/pkg/protocol"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(config.ForegroundShadeColor)
)

type Model struct {
	roomID       protocol.RoomID
	participants []protocol.Participant
}

func New() Model {
	return Model{}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) Model {
	switch msg := msg.(type) {
	case messages.StateMessage:
		m.roomID = msg.RoomID
		m.participants = Sorted(msg.Roster)
	}
	return m
}

// Sorted lists the roster by name, then by id.
func Sorted(roster protocol.Roster) []protocol.Participant {
	participants := make([]protocol.Participant, 0, len(roster))
	for _, participant := range roster {
		participants = append(participants, participant)
	}
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].Name != participants[j].Name {
			return participants[i].Name < participants[j].Name
		}
		return participants[i].ID < participants[j].ID
	})
	return participants
}

func (m Model) View() string {
	if m.roomID.Empty() {
		return ""
	}

	rows := []string{
		headerStyle.Render(fmt.Sprintf("Room %s", m.roomID)),
	}
	if len(m.participants) == 0 {
		rows = append(rows, statusStyle.Render("  nobody here yet"))
	}
	for _, participant := range m.participants {
		rows = append(rows, renderParticipant(participant))
	}
	return strings.Join(rows, "\n")
}

func renderParticipant(participant protocol.Participant) string {
	name := participant.Name
	if name == "" {
		name = string(participant.ID)
	}
	style := lipgloss.NewStyle()
	if participant.Color != "" {
		style = style.Foreground(lipgloss.Color(participant.Color))
	}
	row := "  " + style.Render(name)
	if participant.Status != "" {
		row += " " + statusStyle.Render(string(participant.Status))
	}
	return row
}
