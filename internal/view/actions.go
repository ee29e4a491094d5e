package view

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/six78/arena-cli/internal/view/commands"
	"github.com/six78/arena-cli/internal/view/messages"
	"github.com/six78/arena-cli/pkg/protocol"
)

type Action string

const (
	Join       Action = "join"
	New        Action = "new"
	Leave      Action = "leave"
	Update     Action = "update"
	Duel       Action = "duel"
	Accept     Action = "accept"
	Reject     Action = "reject"
	Progress   Action = "progress"
	Team       Action = "team"
	LeaveTeam  Action = "leave-team"
	Mission    Action = "mission"
	Contribute Action = "contribute"
)

type actionFunc func(m *model, args []string) tea.Cmd

var actions = map[Action]actionFunc{
	Join:       runJoinAction,
	New:        runNewAction,
	Leave:      runLeaveAction,
	Update:     runUpdateAction,
	Duel:       runDuelAction,
	Accept:     runAcceptAction,
	Reject:     runRejectAction,
	Progress:   runProgressAction,
	Team:       runTeamAction,
	LeaveTeam:  runLeaveTeamAction,
	Mission:    runMissionAction,
	Contribute: runContributeAction,
}

func errorCommand(err error) tea.Cmd {
	return func() tea.Msg {
		return messages.NewErrorMessage(err)
	}
}

func runJoinAction(m *model, args []string) tea.Cmd {
	if len(args) == 0 {
		return errorCommand(errors.New("no room id argument provided"))
	}
	roomID := protocol.RoomID(args[0])
	return commands.JoinRoom(m.commands, m.store, roomID, m.profile.UserID, m.profile.Info)
}

func runNewAction(m *model, args []string) tea.Cmd {
	return commands.CreateNewRoom(m.commands, m.store, m.profile.UserID, m.profile.Info)
}

func runLeaveAction(m *model, args []string) tea.Cmd {
	return commands.LeaveRoom(m.commands)
}

func runUpdateAction(m *model, args []string) tea.Cmd {
	if len(args) == 0 {
		return errorCommand(errors.New("empty update"))
	}
	if m.state.RoomID.Empty() {
		return errorCommand(errors.New("not in a room"))
	}
	return commands.SendUpdate(m.commands, map[string]string{
		"message": strings.Join(args, " "),
	})
}

// runDuelAction handles `duel <user> [seconds] [challenge name...]`.
func runDuelAction(m *model, args []string) tea.Cmd {
	if len(args) == 0 {
		return errorCommand(errors.New("no opponent provided"))
	}
	target, err := m.resolveUser(args[0])
	if err != nil {
		return errorCommand(err)
	}
	if target == m.profile.UserID {
		return errorCommand(errors.New("can't challenge yourself"))
	}

	challenge := protocol.ChallengeConfig{}
	rest := args[1:]
	if len(rest) > 0 {
		if seconds, err := strconv.Atoi(rest[0]); err == nil {
			if seconds <= 0 {
				return errorCommand(errors.New("duel duration must be positive"))
			}
			challenge.DurationSeconds = seconds
			rest = rest[1:]
		}
	}
	challenge.Name = strings.Join(rest, " ")

	return commands.ChallengeToDuel(m.commands, target, challenge)
}

func runAcceptAction(m *model, args []string) tea.Cmd {
	invitation, err := m.pickInvitation(args)
	if err != nil {
		return errorCommand(err)
	}
	return commands.AcceptDuel(m.commands, invitation.ID)
}

func runRejectAction(m *model, args []string) tea.Cmd {
	invitation, err := m.pickInvitation(args)
	if err != nil {
		return errorCommand(err)
	}
	return commands.RejectDuel(m.commands, invitation.ID)
}

func runProgressAction(m *model, args []string) tea.Cmd {
	progress, err := parseProgress(args)
	if err != nil {
		return errorCommand(err)
	}
	if m.state.Duel == nil {
		return errorCommand(errors.New("no active duel"))
	}
	return commands.UpdateDuelProgress(m.commands, progress)
}

func runTeamAction(m *model, args []string) tea.Cmd {
	if len(args) == 0 {
		return errorCommand(errors.New("no team id argument provided"))
	}
	return commands.JoinTeam(m.commands, protocol.TeamID(args[0]))
}

func runLeaveTeamAction(m *model, args []string) tea.Cmd {
	if m.state.Team == nil {
		return errorCommand(errors.New("not in a team"))
	}
	return commands.LeaveTeam(m.commands)
}

// runMissionAction handles `mission <goal> <seconds> <name...>`.
func runMissionAction(m *model, args []string) tea.Cmd {
	if m.state.Team == nil {
		return errorCommand(errors.New("not in a team"))
	}
	if len(args) < 3 {
		return errorCommand(errors.New("usage: mission <goal> <seconds> <name>"))
	}
	goal, err := strconv.ParseFloat(args[0], 64)
	if err != nil || goal <= 0 {
		return errorCommand(errors.Errorf("invalid mission goal '%s'", args[0]))
	}
	seconds, err := strconv.Atoi(args[1])
	if err != nil || seconds <= 0 {
		return errorCommand(errors.Errorf("invalid mission duration '%s'", args[1]))
	}
	return commands.StartTeamMission(m.commands, protocol.MissionConfig{
		Name:            strings.Join(args[2:], " "),
		Goal:            goal,
		DurationSeconds: seconds,
	})
}

func runContributeAction(m *model, args []string) tea.Cmd {
	progress, err := parseProgress(args)
	if err != nil {
		return errorCommand(err)
	}
	if m.state.Team == nil || m.state.Team.Mission == nil {
		return errorCommand(errors.New("no active mission"))
	}
	return commands.UpdateTeamMissionProgress(m.commands, progress)
}

func parseProgress(args []string) (float64, error) {
	if len(args) == 0 {
		return 0, errors.New("no progress value provided")
	}
	progress, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "%"), 64)
	if err != nil {
		return 0, errors.Wrap(err, "failed to parse progress")
	}
	return protocol.ClampProgress(progress), nil
}

// resolveUser looks the argument up in the roster, first by id, then by name.
func (m *model) resolveUser(input string) (protocol.UserID, error) {
	if _, ok := m.state.Roster[protocol.UserID(input)]; ok {
		return protocol.UserID(input), nil
	}
	var found []protocol.UserID
	for id, participant := range m.state.Roster {
		if strings.EqualFold(participant.Name, input) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return "", errors.Errorf("user '%s' is not in the room", input)
	case 1:
		return found[0], nil
	default:
		return "", errors.Errorf("name '%s' is ambiguous, use the user id", input)
	}
}

// pickInvitation takes a 1-based index, defaulting to the selected invitation.
func (m *model) pickInvitation(args []string) (*protocol.Invitation, error) {
	if len(m.state.Invitations) == 0 {
		return nil, errors.New("no pending invitations")
	}
	if len(args) == 0 {
		if selected := m.invitationsView.Selected(); selected != nil {
			return selected, nil
		}
		return &m.state.Invitations[0], nil
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse invitation number")
	}
	if index < 1 || index > len(m.state.Invitations) {
		return nil, errors.Errorf("invitation number must be between 1 and %d", len(m.state.Invitations))
	}
	invitation := m.state.Invitations[index-1]
	return &invitation, nil
}
