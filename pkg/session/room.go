package session

import (
	"go.uber.org/zap"

	"github.com/six78/arena-cli/pkg/eventbus"
	"github.com/six78/arena-cli/pkg/protocol"
)

// JoinRoom makes roomID the current room. The roster of a previous room is
// discarded. The join is sent now when connected, and again after every reconnect.
func (c *Coordinator) JoinRoom(roomID protocol.RoomID, userID protocol.UserID, info protocol.ParticipantInfo) {
	if roomID.Empty() {
		c.logger.Warn("empty room id")
		return
	}

	c.mutex.Lock()
	c.roomID = roomID
	c.roomUser = userID
	c.roomInfo = info
	c.roster = protocol.Roster{}
	online := c.online()
	message := c.joinRoomMessage()
	roster := c.roster.Copy()
	c.mutex.Unlock()

	c.logger.Info("joining room", zap.String("roomID", roomID.String()))

	if online {
		c.send(protocol.EventJoinRoom, message)
	}

	c.bus.Publish(eventbus.TopicRosterChanged, roster)
}

func (c *Coordinator) LeaveRoom() {
	c.mutex.Lock()
	roomID := c.roomID
	if roomID.Empty() {
		c.mutex.Unlock()
		c.logger.Debug("no room to leave")
		return
	}
	c.roomID = ""
	c.roomUser = ""
	c.roomInfo = protocol.ParticipantInfo{}
	c.roster = nil
	online := c.online()
	c.mutex.Unlock()

	c.logger.Info("left room", zap.String("roomID", roomID.String()))

	if online {
		c.send(protocol.EventLeaveRoom, protocol.LeaveRoomMessage{RoomID: roomID})
	}

	c.bus.Publish(eventbus.TopicRosterChanged, protocol.Roster(nil))
}

// SendUpdate broadcasts an arbitrary collaboration update to the current room.
func (c *Coordinator) SendUpdate(update any) {
	c.mutex.Lock()
	roomID := c.roomID
	online := c.online()
	c.mutex.Unlock()

	if roomID.Empty() {
		c.logger.Debug("room update without room")
		return
	}
	if !online {
		c.logger.Debug("dropped room update while offline")
		return
	}

	c.send(protocol.EventRoomUpdate, protocol.RoomUpdateMessage{
		RoomID: roomID,
		Update: update,
	})
}

func (c *Coordinator) joinRoomMessage() protocol.JoinRoomMessage {
	return protocol.JoinRoomMessage{
		RoomID:   c.roomID,
		UserID:   c.roomUser,
		UserInfo: c.roomInfo,
	}
}

// inRoom reports whether a room scoped payload belongs to the current room.
// Payloads without a room id are attributed to the current room.
func (c *Coordinator) inRoom(roomID protocol.RoomID) bool {
	if c.roomID.Empty() {
		return false
	}
	return roomID.Empty() || roomID == c.roomID
}

func (c *Coordinator) rosterChanged() []notification {
	return []notification{{topic: eventbus.TopicRosterChanged, data: c.roster.Copy()}}
}

func (c *Coordinator) handleParticipantJoined(message *protocol.ParticipantJoined) []notification {
	if !c.inRoom(message.RoomID) {
		c.logger.Debug("participant joined another room",
			zap.String("roomID", message.RoomID.String()),
			zap.String("userID", string(message.ID)),
		)
		return nil
	}
	if message.ID == "" {
		c.logger.Warn("participant without id")
		return nil
	}

	if c.roster == nil {
		c.roster = protocol.Roster{}
	}
	c.roster[message.ID] = message.Participant

	c.logger.Info("participant joined", zap.Any("participant", message.Participant))
	return c.rosterChanged()
}

func (c *Coordinator) handleParticipantLeft(message *protocol.ParticipantLeft) []notification {
	if !c.inRoom(message.RoomID) {
		return nil
	}
	if _, ok := c.roster[message.UserID]; !ok {
		return nil
	}

	delete(c.roster, message.UserID)

	c.logger.Info("participant left", zap.String("userID", string(message.UserID)))
	return c.rosterChanged()
}

func (c *Coordinator) handleRoomParticipants(message *protocol.RoomParticipants) []notification {
	if c.roomID.Empty() || message.RoomID != c.roomID {
		return nil
	}

	roster := make(protocol.Roster, len(message.Participants))
	for _, participant := range message.Participants {
		if participant.ID == "" {
			continue
		}
		roster[participant.ID] = participant
	}
	c.roster = roster

	return c.rosterChanged()
}

func (c *Coordinator) handleRoomUpdated(message *protocol.RoomUpdated) []notification {
	if !c.inRoom(message.RoomID) {
		return nil
	}
	return []notification{{topic: eventbus.TopicRoomUpdate, data: *message}}
}
