package commands

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/internal/view/messages"
	"github.com/six78/arena-cli/pkg/binding"
	"github.com/six78/arena-cli/pkg/protocol"
)

// RoomStore remembers the last joined room.
type RoomStore interface {
	SetLastRoom(roomID protocol.RoomID) error
}

func JoinRoom(c *binding.Commands, store RoomStore, roomID protocol.RoomID, userID protocol.UserID, info protocol.ParticipantInfo) tea.Cmd {
	return func() tea.Msg {
		c.JoinRoom(roomID, userID, info)
		if store != nil {
			if err := store.SetLastRoom(roomID); err != nil {
				config.Logger.Warn("failed to save last room", zap.Error(err))
			}
		}
		return messages.RoomJoin{RoomID: roomID}
	}
}

func CreateNewRoom(c *binding.Commands, store RoomStore, userID protocol.UserID, info protocol.ParticipantInfo) tea.Cmd {
	return func() tea.Msg {
		roomID, err := protocol.NewRoomID()
		if err != nil {
			return messages.NewErrorMessage(errors.Wrap(err, "failed to create room"))
		}
		return JoinRoom(c, store, roomID, userID, info)()
	}
}

func LeaveRoom(c *binding.Commands) tea.Cmd {
	return func() tea.Msg {
		c.LeaveRoom()
		return messages.RoomJoin{}
	}
}

func SendUpdate(c *binding.Commands, update any) tea.Cmd {
	return func() tea.Msg {
		c.SendUpdate(update)
		return nil
	}
}

func ChallengeToDuel(c *binding.Commands, target protocol.UserID, challenge protocol.ChallengeConfig) tea.Cmd {
	return func() tea.Msg {
		c.ChallengeToDuel(target, challenge)
		return nil
	}
}

func AcceptDuel(c *binding.Commands, id protocol.DuelID) tea.Cmd {
	return func() tea.Msg {
		c.AcceptDuel(id)
		return nil
	}
}

func RejectDuel(c *binding.Commands, id protocol.DuelID) tea.Cmd {
	return func() tea.Msg {
		c.RejectDuel(id)
		return nil
	}
}

func UpdateDuelProgress(c *binding.Commands, progress float64) tea.Cmd {
	return func() tea.Msg {
		c.UpdateDuelProgress(progress)
		return nil
	}
}

func JoinTeam(c *binding.Commands, id protocol.TeamID) tea.Cmd {
	return func() tea.Msg {
		c.JoinTeam(id)
		return nil
	}
}

func LeaveTeam(c *binding.Commands) tea.Cmd {
	return func() tea.Msg {
		c.LeaveTeam()
		return nil
	}
}

func StartTeamMission(c *binding.Commands, mission protocol.MissionConfig) tea.Cmd {
	return func() tea.Msg {
		c.StartTeamMission(mission)
		return nil
	}
}

func UpdateTeamMissionProgress(c *binding.Commands, progress float64) tea.Cmd {
	return func() tea.Msg {
		c.UpdateTeamMissionProgress(progress)
		return nil
	}
}

func Tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return messages.TickMessage{}
	})
}

func QuitApp(b *binding.Binding) tea.Cmd {
	return func() tea.Msg {
		b.Unmount()
		return tea.Quit()
	}
}
