package devserver

import (
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"

	"github.com/six78/arena-cli/internal/testcommon"
	"github.com/six78/arena-cli/pkg/protocol"
)

func TestHub(t *testing.T) {
	suite.Run(t, new(HubSuite))
}

type fakePeer struct {
	id     string
	userID protocol.UserID

	mutex     sync.Mutex
	envelopes []*protocol.Envelope
	closed    bool
}

func (p *fakePeer) ID() string                { return p.id }
func (p *fakePeer) UserID() protocol.UserID { return p.userID }

func (p *fakePeer) Deliver(envelope *protocol.Envelope) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.envelopes = append(p.envelopes, envelope)
	return true
}

func (p *fakePeer) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.closed = true
}

// take returns and forgets the envelopes delivered so far.
func (p *fakePeer) take() []*protocol.Envelope {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	envelopes := p.envelopes
	p.envelopes = nil
	return envelopes
}

type HubSuite struct {
	testcommon.Suite
	clock clockwork.FakeClock
	hub   *hub
}

func (s *HubSuite) SetupTest() {
	s.clock = clockwork.NewFakeClock()
	s.hub = newHub(s.Logger, s.clock)
}

func (s *HubSuite) newPeer() *fakePeer {
	p := &fakePeer{
		id:     gofakeit.UUID(),
		userID: s.FakeUserID(),
	}
	s.hub.register(p)
	return p
}

func (s *HubSuite) command(p *fakePeer, event protocol.EventName, payload any) {
	envelope, err := protocol.NewEnvelope(event, payload)
	s.Require().NoError(err)
	s.hub.handle(p.UserID(), envelope)
}

func decode[T any](s *HubSuite, envelope *protocol.Envelope, event protocol.EventName) *T {
	s.Require().Equal(event, envelope.Event)
	payload, err := protocol.Decode[T](envelope)
	s.Require().NoError(err)
	return payload
}

func (s *HubSuite) join(p *fakePeer, roomID protocol.RoomID) {
	s.command(p, protocol.EventJoinRoom, protocol.JoinRoomMessage{
		RoomID:   roomID,
		UserID:   p.UserID(),
		UserInfo: protocol.ParticipantInfo{Name: gofakeit.Username()},
	})
}

func (s *HubSuite) TestJoinRoom() {
	alice := s.newPeer()
	bob := s.newPeer()

	s.join(alice, "room")
	envelopes := alice.take()
	s.Require().Len(envelopes, 1)
	roster := decode[protocol.RoomParticipants](s, envelopes[0], protocol.EventRoomParticipants)
	s.Require().Equal(protocol.RoomID("room"), roster.RoomID)
	s.Require().Len(roster.Participants, 1)

	s.join(bob, "room")
	envelopes = alice.take()
	s.Require().Len(envelopes, 1)
	joined := decode[protocol.ParticipantJoined](s, envelopes[0], protocol.EventUserJoined)
	s.Require().Equal(bob.UserID(), joined.ID)
	s.Require().Equal(protocol.RoomID("room"), joined.RoomID)

	envelopes = bob.take()
	s.Require().Len(envelopes, 1)
	roster = decode[protocol.RoomParticipants](s, envelopes[0], protocol.EventRoomParticipants)
	s.Require().Len(roster.Participants, 2)

	users, rooms := s.hub.stats()
	s.Require().Equal(2, users)
	s.Require().Equal(1, rooms)
}

func (s *HubSuite) TestSwitchRoom() {
	alice := s.newPeer()
	bob := s.newPeer()
	s.join(alice, "first")
	s.join(bob, "first")
	alice.take()

	s.join(bob, "second")
	envelopes := alice.take()
	s.Require().Len(envelopes, 1)
	left := decode[protocol.ParticipantLeft](s, envelopes[0], protocol.EventUserLeft)
	s.Require().Equal(bob.UserID(), left.UserID)
	s.Require().Equal(protocol.RoomID("first"), left.RoomID)
}

func (s *HubSuite) TestLeaveOnLastConnection() {
	alice := s.newPeer()
	bob := s.newPeer()
	s.join(alice, "room")
	s.join(bob, "room")
	alice.take()

	// A second connection of the same user keeps it in the room
	another := &fakePeer{id: gofakeit.UUID(), userID: bob.UserID()}
	s.hub.register(another)
	s.hub.unregister(bob)
	s.Require().Empty(alice.take())
	s.Require().True(s.hub.online(bob.UserID()))

	s.hub.unregister(another)
	envelopes := alice.take()
	s.Require().Len(envelopes, 1)
	decode[protocol.ParticipantLeft](s, envelopes[0], protocol.EventUserLeft)
	s.Require().False(s.hub.online(bob.UserID()))
}

func (s *HubSuite) TestRoomUpdate() {
	alice := s.newPeer()
	bob := s.newPeer()
	s.join(alice, "room")
	s.join(bob, "room")
	alice.take()
	bob.take()

	s.command(alice, protocol.EventRoomUpdate, protocol.RoomUpdateMessage{
		RoomID: "room",
		Update: map[string]any{"emoji": "wave"},
	})

	for _, p := range []*fakePeer{alice, bob} {
		envelopes := p.take()
		s.Require().Len(envelopes, 1)
		updated := decode[protocol.RoomUpdated](s, envelopes[0], protocol.EventRoomUpdated)
		s.Require().Equal(alice.UserID(), updated.UserID)
		s.Require().Equal(map[string]any{"emoji": "wave"}, updated.Update)
	}
}

func (s *HubSuite) TestDuel() {
	alice := s.newPeer()
	bob := s.newPeer()
	s.join(alice, "room")
	s.join(bob, "room")
	alice.take()
	bob.take()

	s.command(alice, protocol.EventChallengeDuel, protocol.ChallengeDuelMessage{
		TargetUserID:    bob.UserID(),
		ChallengeConfig: protocol.ChallengeConfig{Name: "typing", DurationSeconds: 60},
	})
	envelopes := bob.take()
	s.Require().Len(envelopes, 1)
	invitation := decode[protocol.Invitation](s, envelopes[0], protocol.EventDuelInvite)
	s.Require().Equal(alice.UserID(), invitation.FromUserID)
	s.Require().NotEmpty(invitation.FromUserName)
	s.Require().NotEmpty(invitation.ID)

	// Only the target may accept
	s.command(alice, protocol.EventAcceptDuel, protocol.DuelDecisionMessage{DuelID: invitation.ID})
	s.Require().Empty(alice.take())

	s.command(bob, protocol.EventAcceptDuel, protocol.DuelDecisionMessage{DuelID: invitation.ID})
	for _, p := range []*fakePeer{alice, bob} {
		envelopes = p.take()
		s.Require().Len(envelopes, 1)
		duel := decode[protocol.Duel](s, envelopes[0], protocol.EventDuelStarted)
		s.Require().Equal(invitation.ID, duel.ID)
		s.Require().Equal("typing", duel.ChallengeName)
		s.Require().Equal(s.clock.Now().UnixMilli(), duel.StartTime)
		s.Require().Equal(duel.StartTime+60_000, duel.EndTime)
	}

	s.command(bob, protocol.EventDuelProgressReport, protocol.DuelProgressMessage{DuelID: invitation.ID, Progress: 40})
	envelopes = alice.take()
	s.Require().Len(envelopes, 1)
	patch := decode[protocol.DuelPatch](s, envelopes[0], protocol.EventDuelProgress)
	s.Require().Equal([]protocol.DuelProgress{{UserID: bob.UserID(), Progress: 40}}, patch.Participants)
	bob.take()

	s.command(alice, protocol.EventDuelProgressReport, protocol.DuelProgressMessage{DuelID: invitation.ID, Progress: 120})
	envelopes = bob.take()
	s.Require().Len(envelopes, 2)
	patch = decode[protocol.DuelPatch](s, envelopes[0], protocol.EventDuelProgress)
	s.Require().Equal(float64(100), patch.Participants[0].Progress)
	ended := decode[protocol.DuelEnded](s, envelopes[1], protocol.EventDuelEnded)
	s.Require().Equal(alice.UserID(), ended.WinnerID)

	// The duel is gone
	alice.take()
	s.command(alice, protocol.EventDuelProgressReport, protocol.DuelProgressMessage{DuelID: invitation.ID, Progress: 10})
	s.Require().Empty(bob.take())
}

func (s *HubSuite) TestRejectDuel() {
	alice := s.newPeer()
	bob := s.newPeer()

	s.command(alice, protocol.EventChallengeDuel, protocol.ChallengeDuelMessage{TargetUserID: bob.UserID()})
	invitation := decode[protocol.Invitation](s, bob.take()[0], protocol.EventDuelInvite)

	s.command(bob, protocol.EventRejectDuel, protocol.DuelDecisionMessage{DuelID: invitation.ID})
	s.command(bob, protocol.EventAcceptDuel, protocol.DuelDecisionMessage{DuelID: invitation.ID})
	s.Require().Empty(alice.take())
	s.Require().Empty(bob.take())
}

func (s *HubSuite) TestTeamMission() {
	alice := s.newPeer()
	bob := s.newPeer()

	s.command(alice, protocol.EventJoinTeam, protocol.TeamMembershipMessage{TeamID: "t1", UserID: alice.UserID()})
	team := decode[protocol.Team](s, alice.take()[0], protocol.EventTeamJoined)
	s.Require().Len(team.Members, 1)

	s.command(bob, protocol.EventJoinTeam, protocol.TeamMembershipMessage{TeamID: "t1", UserID: bob.UserID()})
	for _, p := range []*fakePeer{alice, bob} {
		team = decode[protocol.Team](s, p.take()[0], protocol.EventTeamJoined)
		s.Require().Len(team.Members, 2)
	}

	s.command(alice, protocol.EventStartTeamMission, protocol.StartMissionMessage{
		TeamID:        "t1",
		MissionConfig: protocol.MissionConfig{Name: "collect"},
	})
	started := decode[protocol.MissionPatch](s, bob.take()[0], protocol.EventTeamMissionProgress)
	s.Require().NotEmpty(started.MissionID)
	s.Require().Equal("collect", *started.Name)
	alice.take()

	s.command(alice, protocol.EventTeamMissionProgressReport, protocol.MissionProgressMessage{
		TeamID:    "t1",
		MissionID: started.MissionID,
		Progress:  60,
	})
	patch := decode[protocol.MissionPatch](s, bob.take()[0], protocol.EventTeamMissionProgress)
	s.Require().Equal(float64(30), *patch.Progress)
	s.Require().Equal([]protocol.Contribution{{UserID: alice.UserID(), Progress: 60}}, patch.Contributions)
	alice.take()

	s.command(bob, protocol.EventLeaveTeam, protocol.TeamMembershipMessage{TeamID: "t1", UserID: bob.UserID()})
	team = decode[protocol.Team](s, alice.take()[0], protocol.EventTeamJoined)
	s.Require().Len(team.Members, 1)
	s.Require().Empty(bob.take())
}

func (s *HubSuite) TestMalformedCommand() {
	alice := s.newPeer()
	s.hub.handle(alice.UserID(), &protocol.Envelope{Event: protocol.EventJoinRoom, Data: []byte("{")})
	s.hub.handle(alice.UserID(), &protocol.Envelope{Event: "unknown"})
	s.Require().Empty(alice.take())
}

func (s *HubSuite) TestCloseAll() {
	alice := s.newPeer()
	s.join(alice, "room")

	s.hub.closeAll()
	s.Require().True(alice.closed)
	users, rooms := s.hub.stats()
	s.Require().Zero(users)
	s.Require().Zero(rooms)
}
