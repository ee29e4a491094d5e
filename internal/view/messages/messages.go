package messages

import (
	"github.com/six78/arena-cli/pkg/protocol"
	"github.com/six78/arena-cli/pkg/session"
)

type FatalErrorMessage struct {
	Err error
}

type ErrorMessage struct {
	Err error
}

func NewErrorMessage(err error) ErrorMessage {
	return ErrorMessage{Err: err}
}

// StateMessage carries the binding cells as of the last change.
type StateMessage struct {
	Status      session.ConnectionState
	RoomID      protocol.RoomID
	Roster      protocol.Roster
	Duel        *protocol.Duel
	DuelStatus  protocol.DuelStatus
	Invitations []protocol.Invitation
	Team        *protocol.Team
	LastResult  *session.DuelResult
}

type CommandModeChange struct {
	CommandMode bool
}

type RoomJoin struct {
	RoomID protocol.RoomID
}

type TickMessage struct{}
