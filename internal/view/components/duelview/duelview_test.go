package duelview

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"

	"github.com/six78/arena-cli/internal/testcommon"
	"github.com/six78/arena-cli/internal/view/messages"
	"github.com/six78/arena-cli/pkg/protocol"
	"github.com/six78/arena-cli/pkg/session"
)

func TestDuelView(t *testing.T) {
	suite.Run(t, new(Suite))
}

type Suite struct {
	testcommon.Suite
	clock    clockwork.FakeClock
	userID   protocol.UserID
	opponent protocol.Participant
}

func (s *Suite) SetupTest() {
	s.clock = clockwork.NewFakeClock()
	s.userID = s.FakeUserID()
	s.opponent = s.FakeParticipant()
}

func (s *Suite) duel() *protocol.Duel {
	return &protocol.Duel{
		ID:            "d1",
		ChallengeName: gofakeit.Word(),
		Participants: []protocol.DuelProgress{
			{UserID: s.userID, Progress: 30},
			{UserID: s.opponent.ID, Progress: 60},
		},
		StartTime: s.clock.Now().UnixMilli(),
		EndTime:   s.clock.Now().Add(90 * time.Second).UnixMilli(),
	}
}

func (s *Suite) TestEmpty() {
	m := New(s.userID, s.clock.Now)
	s.Require().Empty(m.View())
}

func (s *Suite) TestActiveDuel() {
	duel := s.duel()
	m := New(s.userID, s.clock.Now).Update(messages.StateMessage{
		Duel:       duel,
		DuelStatus: protocol.DuelActive,
		Roster:     protocol.Roster{s.opponent.ID: s.opponent},
	})

	view := m.View()
	s.Require().Contains(view, duel.ChallengeName)
	s.Require().Contains(view, "1m30s left")
	s.Require().Contains(view, "You")
	s.Require().Contains(view, s.opponent.Name)

	s.clock.Advance(time.Minute)
	s.Require().Contains(m.View(), "30s left")
}

func (s *Suite) TestRemainingRoundsUp() {
	duel := s.duel()
	duel.EndTime = s.clock.Now().Add(1500 * time.Millisecond).UnixMilli()
	m := New(s.userID, s.clock.Now).Update(messages.StateMessage{
		Duel:       duel,
		DuelStatus: protocol.DuelActive,
	})
	s.Require().Contains(m.View(), "2s left")

	s.clock.Advance(time.Second)
	s.Require().Contains(m.View(), "1s left")

	s.clock.Advance(time.Second)
	s.Require().Contains(m.View(), "0s left")
}

func (s *Suite) TestFinishedDuel() {
	m := New(s.userID, s.clock.Now).Update(messages.StateMessage{
		Duel:       s.duel(),
		DuelStatus: protocol.DuelFinished,
	})
	s.Require().Contains(m.View(), "time is up")
}

func (s *Suite) TestResult() {
	testCases := []struct {
		winner   protocol.UserID
		expected string
	}{
		{s.userID, "You won the last duel"},
		{"", "Last duel ended without a winner"},
		{s.opponent.ID, s.opponent.Name + " won the last duel"},
	}

	for _, tc := range testCases {
		m := New(s.userID, s.clock.Now).Update(messages.StateMessage{
			Roster: protocol.Roster{s.opponent.ID: s.opponent},
			LastResult: &session.DuelResult{
				Duel:     s.duel(),
				WinnerID: tc.winner,
			},
		})
		s.Require().Contains(m.View(), tc.expected)
	}
}
