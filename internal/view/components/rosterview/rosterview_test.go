package rosterview

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/six78/arena-cli/internal/testcommon"
	"github.com/six78/arena-cli/internal/view/messages"
	"github.com/six78/arena-cli/pkg/protocol"
)

func TestRosterView(t *testing.T) {
	suite.Run(t, new(Suite))
}

type Suite struct {
	testcommon.Suite
}

func (s *Suite) TestSorted() {
	a := protocol.Participant{ID: "3", ParticipantInfo: protocol.ParticipantInfo{Name: "alice"}}
	b1 := protocol.Participant{ID: "1", ParticipantInfo: protocol.ParticipantInfo{Name: "bob"}}
	b2 := protocol.Participant{ID: "2", ParticipantInfo: protocol.ParticipantInfo{Name: "bob"}}

	sorted := Sorted(protocol.Roster{b2.ID: b2, a.ID: a, b1.ID: b1})
	s.Require().Equal([]protocol.Participant{a, b1, b2}, sorted)
	s.Require().Empty(Sorted(nil))
}

func (s *Suite) TestView() {
	m := New()
	s.Require().Empty(m.View())

	m = m.Update(messages.StateMessage{RoomID: "room1"})
	s.Require().Contains(m.View(), "Room room1")
	s.Require().Contains(m.View(), "nobody here yet")

	participant := s.FakeParticipant()
	participant.Status = protocol.StatusBusy
	m = m.Update(messages.StateMessage{
		RoomID: "room1",
		Roster: protocol.Roster{participant.ID: participant},
	})
	s.Require().Contains(m.View(), participant.Name)
	s.Require().Contains(m.View(), string(protocol.StatusBusy))
	s.Require().NotContains(m.View(), "nobody here yet")
}
