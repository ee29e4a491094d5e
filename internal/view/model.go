package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/internal/view/commands"
	"github.com/six78/arena-cli/internal/view/components/duelview"
	"github.com/six78/arena-cli/internal/view/components/errorview"
	"github.com/six78/arena-cli/internal/view/components/eventhandler"
	"github.com/six78/arena-cli/internal/view/components/invitationsview"
	"github.com/six78/arena-cli/internal/view/components/rosterview"
	"github.com/six78/arena-cli/internal/view/components/shortcutsview"
	"github.com/six78/arena-cli/internal/view/components/statusview"
	"github.com/six78/arena-cli/internal/view/components/teamview"
	"github.com/six78/arena-cli/internal/view/components/userinput"
	"github.com/six78/arena-cli/internal/view/messages"
	"github.com/six78/arena-cli/internal/view/update"
	"github.com/six78/arena-cli/pkg/binding"
	"github.com/six78/arena-cli/pkg/protocol"
)

const tickInterval = time.Second

// Profile describes the local user inside rooms.
type Profile struct {
	UserID      protocol.UserID
	Info        protocol.ParticipantInfo
	InitialRoom protocol.RoomID
}

type model struct {
	binding  *binding.Binding
	commands *binding.Commands
	store    commands.RoomStore
	profile  Profile

	// Last state received from the binding
	fatalError  error
	state       messages.StateMessage
	commandMode bool

	// UI components
	input           userinput.Model
	errorView       errorview.Model
	statusView      statusview.Model
	rosterView      rosterview.Model
	duelView        duelview.Model
	teamView        teamview.Model
	invitationsView invitationsview.Model
	shortcutsView   shortcutsview.Model
	stateHandler    eventhandler.Model[struct{}, messages.StateMessage]
}

func initialModel(b *binding.Binding, store commands.RoomStore, profile Profile) model {
	convert := func(struct{}) messages.StateMessage {
		return stateMessage(b)
	}

	return model{
		binding:  b,
		commands: b.Commands(),
		store:    store,
		profile:  profile,
		state:    stateMessage(b),
		// View components
		input:           userinput.New(false),
		errorView:       errorview.New(),
		statusView:      statusview.New(),
		rosterView:      rosterview.New(),
		duelView:        duelview.New(profile.UserID, time.Now),
		teamView:        teamview.New(),
		invitationsView: invitationsview.New(),
		shortcutsView:   shortcutsview.New(),
		stateHandler:    eventhandler.New[struct{}, messages.StateMessage](convert),
	}
}

func stateMessage(b *binding.Binding) messages.StateMessage {
	return messages.StateMessage{
		Status:      b.Status(),
		RoomID:      b.RoomID(),
		Roster:      b.Roster(),
		Duel:        b.Duel(),
		DuelStatus:  b.DuelStatus(),
		Invitations: b.Invitations(),
		Team:        b.Team(),
		LastResult:  b.LastDuelResult(),
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.input.Init(),
		m.statusView.Init(),
		m.stateHandler.Init(m.binding.Changes(), struct{}{}),
		commands.Tick(tickInterval),
	}
	if !m.profile.InitialRoom.Empty() {
		cmds = append(cmds, commands.JoinRoom(m.commands, m.store, m.profile.InitialRoom, m.profile.UserID, m.profile.Info))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := update.NewUpdateCommands()

	switch msg := msg.(type) {
	case messages.FatalErrorMessage:
		m.fatalError = msg.Err

	case messages.StateMessage:
		m.state = msg

	case messages.CommandModeChange:
		m.commandMode = msg.CommandMode

	case messages.RoomJoin:
		config.Logger.Debug("room changed", zap.String("roomID", msg.RoomID.String()))

	case messages.TickMessage:
		cmds.AppendCommand(commands.Tick(tickInterval))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			cmds.AppendCommand(commands.QuitApp(m.binding))
		case tea.KeyEnter:
			if m.input.Focused() {
				cmds.AppendCommand(ProcessUserInput(&m))
			}
		case tea.KeyShiftTab:
			cmds.AppendMessage(messages.CommandModeChange{
				CommandMode: !m.commandMode,
			})
		default:
		}

		if m.input.Focused() {
			break
		}

		keys := commands.DefaultKeyMap
		switch {
		case key.Matches(msg, keys.NewRoom) && m.state.RoomID.Empty():
			cmds.AppendCommand(runNewAction(&m, nil))
		case key.Matches(msg, keys.ExitRoom) && !m.state.RoomID.Empty():
			cmds.AppendCommand(runLeaveAction(&m, nil))
		case key.Matches(msg, keys.AcceptInvitation):
			if invitation := m.invitationsView.Selected(); invitation != nil {
				cmds.AppendCommand(commands.AcceptDuel(m.commands, invitation.ID))
			}
		case key.Matches(msg, keys.RejectInvitation):
			if invitation := m.invitationsView.Selected(); invitation != nil {
				cmds.AppendCommand(commands.RejectDuel(m.commands, invitation.ID))
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds.Component(cmd)
	m.statusView, cmd = m.statusView.Update(msg)
	cmds.Component(cmd)
	m.stateHandler, cmd = m.stateHandler.Update(msg)
	cmds.Component(cmd)

	m.errorView = m.errorView.Update(msg)
	m.rosterView = m.rosterView.Update(msg)
	m.duelView = m.duelView.Update(msg)
	m.teamView = m.teamView.Update(msg)
	m.invitationsView = m.invitationsView.Update(msg)
	m.shortcutsView = m.shortcutsView.Update(msg)

	return m, cmds.Batch()
}

func (m model) View() string {
	if m.fatalError != nil {
		return fmt.Sprintf(" ☠️ fatal error: %s\n%s", m.fatalError, renderLogPath())
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, "  ", "\n"+m.renderSession())
}

var _ tea.Model = (*model)(nil)
