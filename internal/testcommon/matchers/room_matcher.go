package matchers

import (
	"fmt"

	"github.com/six78/arena-cli/pkg/protocol"
)

type RoomMatcher struct {
	roomID protocol.RoomID
}

func NewRoomMatcher(roomID protocol.RoomID) *RoomMatcher {
	return &RoomMatcher{
		roomID: roomID,
	}
}

func (m *RoomMatcher) Matches(x interface{}) bool {
	switch message := x.(type) {
	case protocol.JoinRoomMessage:
		return message.RoomID == m.roomID
	case protocol.LeaveRoomMessage:
		return message.RoomID == m.roomID
	case protocol.RoomUpdateMessage:
		return message.RoomID == m.roomID
	case protocol.RoomID:
		return message == m.roomID
	}
	return false
}

func (m *RoomMatcher) String() string {
	return fmt.Sprintf("is addressed to room %s", m.roomID)
}
