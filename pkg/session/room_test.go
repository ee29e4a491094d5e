package session

import (
	"github.com/brianvoe/gofakeit/v6"

	"github.com/six78/arena-cli/internal/testcommon/matchers"
	"github.com/six78/arena-cli/pkg/eventbus"
	"github.com/six78/arena-cli/pkg/protocol"
)

func (s *Suite) TestSingleActiveRoom() {
	s.connect()

	roomA := s.newRoomID()
	roomB := s.newRoomID()

	s.joinRoom(roomA)
	first := s.FakeParticipant()
	s.receive(protocol.EventUserJoined, protocol.ParticipantJoined{Participant: first, RoomID: roomA})
	s.Require().Contains(s.coordinator.Roster(), first.ID)

	s.joinRoom(roomB)
	s.Require().Equal(roomB, s.coordinator.RoomID())
	s.Require().Empty(s.coordinator.Roster())

	// A late join for the previous room does not leak into the new roster
	late := s.FakeParticipant()
	s.receive(protocol.EventUserJoined, protocol.ParticipantJoined{Participant: late, RoomID: roomA})
	s.Require().Empty(s.coordinator.Roster())

	second := s.FakeParticipant()
	s.receive(protocol.EventUserJoined, protocol.ParticipantJoined{Participant: second, RoomID: roomB})
	third := s.FakeParticipant()
	s.receive(protocol.EventUserJoined, protocol.ParticipantJoined{Participant: third})

	roster := s.coordinator.Roster()
	s.Require().Len(roster, 2)
	s.Require().Equal(second, roster[second.ID])
	s.Require().Equal(third, roster[third.ID])
}

func (s *Suite) TestParticipantJoinedWithoutRoom() {
	s.connect()
	roster := s.record(eventbus.TopicRosterChanged)

	s.receive(protocol.EventUserJoined, protocol.ParticipantJoined{Participant: s.FakeParticipant()})
	s.Require().Nil(s.coordinator.Roster())
	s.Require().Empty(*roster)
}

func (s *Suite) TestParticipantUpdatedOnRejoin() {
	s.connect()
	s.joinRoom(s.newRoomID())

	participant := s.FakeParticipant()
	s.receive(protocol.EventUserJoined, protocol.ParticipantJoined{Participant: participant})

	participant.Status = protocol.StatusBusy
	participant.Name = gofakeit.Username()
	s.receive(protocol.EventUserJoined, protocol.ParticipantJoined{Participant: participant})

	roster := s.coordinator.Roster()
	s.Require().Len(roster, 1)
	s.Require().Equal(protocol.StatusBusy, roster[participant.ID].Status)
	s.Require().Equal(participant.Name, roster[participant.ID].Name)
}

func (s *Suite) TestParticipantLeft() {
	s.connect()
	roomID := s.newRoomID()
	s.joinRoom(roomID)

	first := s.FakeParticipant()
	second := s.FakeParticipant()
	s.receive(protocol.EventUserJoined, protocol.ParticipantJoined{Participant: first})
	s.receive(protocol.EventUserJoined, protocol.ParticipantJoined{Participant: second})

	rosters := s.record(eventbus.TopicRosterChanged)

	s.receive(protocol.EventUserLeft, protocol.ParticipantLeft{UserID: first.ID, RoomID: roomID})
	s.Require().NotContains(s.coordinator.Roster(), first.ID)
	s.Require().Contains(s.coordinator.Roster(), second.ID)
	s.Require().Len(*rosters, 1)

	// Unknown participant and another room are ignored
	s.receive(protocol.EventUserLeft, protocol.ParticipantLeft{UserID: first.ID})
	s.receive(protocol.EventUserLeft, protocol.ParticipantLeft{UserID: second.ID, RoomID: s.newRoomID()})
	s.Require().Contains(s.coordinator.Roster(), second.ID)
	s.Require().Len(*rosters, 1)
}

func (s *Suite) TestRoomParticipantsReplacesRoster() {
	s.connect()
	roomID := s.newRoomID()
	s.joinRoom(roomID)

	stale := s.FakeParticipant()
	s.receive(protocol.EventUserJoined, protocol.ParticipantJoined{Participant: stale})

	participants := []protocol.Participant{s.FakeParticipant(), s.FakeParticipant()}
	s.receive(protocol.EventRoomParticipants, protocol.RoomParticipants{
		RoomID:       roomID,
		Participants: participants,
	})

	roster := s.coordinator.Roster()
	s.Require().Len(roster, 2)
	s.Require().NotContains(roster, stale.ID)

	// Snapshot of another room is ignored
	s.receive(protocol.EventRoomParticipants, protocol.RoomParticipants{
		RoomID:       s.newRoomID(),
		Participants: []protocol.Participant{s.FakeParticipant()},
	})
	s.Require().Equal(roster, s.coordinator.Roster())
}

func (s *Suite) TestLeaveRoom() {
	s.connect()
	roomID := s.newRoomID()
	s.joinRoom(roomID)
	s.receive(protocol.EventUserJoined, protocol.ParticipantJoined{Participant: s.FakeParticipant()})

	s.transport.EXPECT().
		Send(protocol.EventLeaveRoom, matchers.NewRoomMatcher(roomID)).
		Return(nil)
	s.coordinator.LeaveRoom()

	s.Require().True(s.coordinator.RoomID().Empty())
	s.Require().Empty(s.coordinator.Roster())

	// Second leave is a no-op, gomock fails on an unexpected send
	s.coordinator.LeaveRoom()

	// Participants of the left room are not tracked anymore
	s.receive(protocol.EventUserJoined, protocol.ParticipantJoined{Participant: s.FakeParticipant(), RoomID: roomID})
	s.Require().Empty(s.coordinator.Roster())
}

func (s *Suite) TestSendUpdate() {
	s.connect()

	// No room, nothing sent
	s.coordinator.SendUpdate("ignored")

	roomID := s.newRoomID()
	s.joinRoom(roomID)

	update := map[string]any{"selection": gofakeit.Word()}
	s.transport.EXPECT().
		Send(protocol.EventRoomUpdate, protocol.RoomUpdateMessage{RoomID: roomID, Update: update}).
		Return(nil)
	s.coordinator.SendUpdate(update)
}

func (s *Suite) TestRoomUpdatedForwarded() {
	s.connect()
	roomID := s.newRoomID()
	s.joinRoom(roomID)

	updates := s.record(eventbus.TopicRoomUpdate)
	from := s.FakeUserID()

	s.receive(protocol.EventRoomUpdated, protocol.RoomUpdated{RoomID: roomID, UserID: from, Update: "hello"})
	s.receive(protocol.EventRoomUpdated, protocol.RoomUpdated{RoomID: s.newRoomID(), Update: "other"})

	s.Require().Len(*updates, 1)
	update := (*updates)[0].(protocol.RoomUpdated)
	s.Require().Equal(from, update.UserID)
	s.Require().Equal("hello", update.Update)
}
