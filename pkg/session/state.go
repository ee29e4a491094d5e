package session

import (
	"github.com/six78/arena-cli/pkg/eventbus"
	"github.com/six78/arena-cli/pkg/protocol"
)

type ConnectionState string

const (
	Disconnected ConnectionState = "disconnected"
	Connecting   ConnectionState = "connecting"
	Connected    ConnectionState = "connected"
)

func (s ConnectionState) String() string {
	return string(s)
}

// Snapshot is a consistent copy of the whole session state.
type Snapshot struct {
	Connection  ConnectionState
	RoomID      protocol.RoomID
	Roster      protocol.Roster
	Duel        *protocol.Duel
	DuelStatus  protocol.DuelStatus
	Invitations []protocol.Invitation
	Team        *protocol.Team
}

// DuelResult is published when the held duel ends.
type DuelResult struct {
	Duel     *protocol.Duel
	WinnerID protocol.UserID
}

type notification struct {
	topic eventbus.Topic
	data  any
}
