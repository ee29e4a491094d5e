package session

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/six78/arena-cli/internal/testcommon/matchers"
	"github.com/six78/arena-cli/internal/transport"
	"github.com/six78/arena-cli/pkg/eventbus"
	"github.com/six78/arena-cli/pkg/protocol"
)

func (s *Suite) startDuel(id protocol.DuelID, opponent protocol.UserID) protocol.Duel {
	duel := protocol.Duel{
		ID: id,
		Participants: []protocol.DuelProgress{
			{UserID: s.userID, Progress: 30},
			{UserID: opponent, Progress: 10},
		},
		ChallengeName: gofakeit.Word(),
		StartTime:     s.clock.Now().UnixMilli(),
		EndTime:       s.clock.Now().Add(time.Minute).UnixMilli(),
	}
	s.receive(protocol.EventDuelStarted, duel)
	return duel
}

func (s *Suite) invite(id protocol.DuelID) protocol.Invitation {
	invitation := protocol.Invitation{
		ID:           id,
		FromUserID:   s.FakeUserID(),
		FromUserName: gofakeit.Username(),
		ChallengeConfig: protocol.ChallengeConfig{
			Name:            gofakeit.Word(),
			DurationSeconds: 60,
		},
	}
	s.receive(protocol.EventDuelInvite, invitation)
	return invitation
}

func (s *Suite) TestDuelMergeNotReplace() {
	s.connect()
	opponent := s.FakeUserID()
	started := s.startDuel("d1", opponent)

	updates := s.record(eventbus.TopicDuelUpdated)
	s.receive(protocol.EventDuelProgress, protocol.DuelPatch{
		Participants: []protocol.DuelProgress{{UserID: s.userID, Progress: 55}},
	})

	duel := s.coordinator.Duel()
	s.Require().NotNil(duel)

	progress, ok := duel.Progress(s.userID)
	s.Require().True(ok)
	s.Require().Equal(float64(55), progress)

	progress, ok = duel.Progress(opponent)
	s.Require().True(ok)
	s.Require().Equal(float64(10), progress)

	s.Require().Equal(started.ChallengeName, duel.ChallengeName)
	s.Require().Equal(started.EndTime, duel.EndTime)
	s.Require().Equal(started.StartTime, duel.StartTime)

	s.Require().Len(*updates, 1)
	s.Require().Equal(duel, (*updates)[0])
}

func (s *Suite) TestDuelStartedReplaces() {
	s.connect()
	s.startDuel("d1", s.FakeUserID())

	started := s.record(eventbus.TopicDuelStarted)
	opponent := s.FakeUserID()
	s.receive(protocol.EventDuelStarted, protocol.Duel{
		ID:           "d2",
		Participants: []protocol.DuelProgress{{UserID: opponent, Progress: 250}},
	})

	duel := s.coordinator.Duel()
	s.Require().Equal(protocol.DuelID("d2"), duel.ID)
	s.Require().Empty(duel.ChallengeName)
	s.Require().Len(duel.Participants, 1)
	s.Require().Equal(float64(100), duel.Participants[0].Progress)
	s.Require().Len(*started, 1)
}

func (s *Suite) TestUnknownIDSafety() {
	s.connect()
	updates := s.record(eventbus.TopicDuelUpdated)
	ended := s.record(eventbus.TopicDuelEnded)
	missions := s.record(eventbus.TopicMissionUpdated)

	// Progress without a duel
	s.receive(protocol.EventDuelProgress, protocol.DuelPatch{
		ID:           "d1",
		Participants: []protocol.DuelProgress{{UserID: s.userID, Progress: 90}},
	})
	s.Require().Nil(s.coordinator.Duel())

	// Progress and end for another duel
	s.startDuel("d1", s.FakeUserID())
	before := s.coordinator.Duel()

	s.receive(protocol.EventDuelProgress, protocol.DuelPatch{
		ID:           "d2",
		Participants: []protocol.DuelProgress{{UserID: s.userID, Progress: 90}},
	})
	s.receive(protocol.EventDuelEnded, protocol.DuelEnded{ID: "d2"})
	s.Require().Equal(before, s.coordinator.Duel())

	// Mission progress without a team
	s.receive(protocol.EventTeamMissionProgress, protocol.MissionPatch{
		TeamID:    "t1",
		MissionID: "m1",
	})
	s.Require().Nil(s.coordinator.Team())

	s.Require().Empty(*updates)
	s.Require().Empty(*ended)
	s.Require().Empty(*missions)
}

func (s *Suite) TestDuelEnded() {
	s.connect()
	opponent := s.FakeUserID()
	s.startDuel("d1", opponent)

	ended := s.record(eventbus.TopicDuelEnded)
	s.receive(protocol.EventDuelEnded, protocol.DuelEnded{ID: "d1", WinnerID: opponent})

	s.Require().Nil(s.coordinator.Duel())
	s.Require().Equal(protocol.DuelNone, s.coordinator.DuelStatus())

	s.Require().Len(*ended, 1)
	result := (*ended)[0].(DuelResult)
	s.Require().Equal(opponent, result.WinnerID)
	s.Require().Equal(protocol.DuelID("d1"), result.Duel.ID)

	// Ending again is a no-op
	s.receive(protocol.EventDuelEnded, protocol.DuelEnded{ID: "d1"})
	s.Require().Len(*ended, 1)
}

func (s *Suite) TestDuelStatus() {
	s.connect()
	s.Require().Equal(protocol.DuelNone, s.coordinator.DuelStatus())

	s.invite("d1")
	s.Require().Equal(protocol.DuelPendingInvite, s.coordinator.DuelStatus())

	s.startDuel("d1", s.FakeUserID())
	s.Require().Equal(protocol.DuelActive, s.coordinator.DuelStatus())

	// The end time passed before the server announced the end
	s.clock.Advance(2 * time.Minute)
	s.Require().Equal(protocol.DuelFinished, s.coordinator.DuelStatus())
}

func (s *Suite) TestInvitationLifecycle() {
	s.connect()
	changes := s.record(eventbus.TopicInvitationsChanged)
	invited := s.record(eventbus.TopicDuelInvited)

	first := s.invite("i1")
	s.clock.Advance(time.Second)
	second := s.invite("i2")

	// Duplicate ids are ignored
	s.invite("i1")

	invitations := s.coordinator.Invitations()
	s.Require().Len(invitations, 2)
	s.Require().Equal(first.ID, invitations[0].ID)
	s.Require().Equal(first.FromUserName, invitations[0].FromUserName)
	s.Require().Equal(second.ID, invitations[1].ID)
	s.Require().Less(invitations[0].ReceivedAt, invitations[1].ReceivedAt)
	s.Require().Len(*invited, 2)
	s.Require().Len(*changes, 2)

	// Reject removes locally and notifies the server
	s.transport.EXPECT().
		Send(protocol.EventRejectDuel, protocol.DuelDecisionMessage{DuelID: "i1"}).
		Return(nil)
	s.coordinator.RejectDuel("i1")

	invitations = s.coordinator.Invitations()
	s.Require().Len(invitations, 1)
	s.Require().Equal(second.ID, invitations[0].ID)
	s.Require().Len(*changes, 3)

	// Accept only notifies the server
	s.transport.EXPECT().
		Send(protocol.EventAcceptDuel, protocol.DuelDecisionMessage{DuelID: "i2"}).
		Return(nil)
	s.coordinator.AcceptDuel("i2")
	s.Require().Len(s.coordinator.Invitations(), 1)

	// Any started duel supersedes pending invitations
	s.invite("i3")
	s.startDuel("i2", s.FakeUserID())
	s.Require().Empty(s.coordinator.Invitations())
	s.Require().Equal(protocol.DuelActive, s.coordinator.DuelStatus())
	s.Require().Empty((*changes)[len(*changes)-1])
}

func (s *Suite) TestDismissInvitation() {
	s.invite("i1")
	changes := s.record(eventbus.TopicInvitationsChanged)

	s.coordinator.DismissInvitation("unknown")
	s.Require().Empty(*changes)

	s.coordinator.DismissInvitation("i1")
	s.Require().Empty(s.coordinator.Invitations())
	s.Require().Len(*changes, 1)
}

func (s *Suite) TestInvitationsLimit() {
	s.handlers = make(map[protocol.EventName][]transport.Handler)
	coordinator := s.newCoordinator([]Option{WithInvitationsLimit(2)})
	coordinator.Start()
	s.coordinator = coordinator

	s.invite("i1")
	s.invite("i2")
	s.invite("i3")

	invitations := s.coordinator.Invitations()
	s.Require().Len(invitations, 2)
	s.Require().Equal(protocol.DuelID("i2"), invitations[0].ID)
	s.Require().Equal(protocol.DuelID("i3"), invitations[1].ID)
}

func (s *Suite) TestChallengeToDuel() {
	s.connect()

	target := s.FakeUserID()
	config := protocol.ChallengeConfig{
		Name:            gofakeit.Word(),
		Category:        gofakeit.Word(),
		DurationSeconds: 90,
	}

	matcher := matchers.NewPayloadMatcher(s.T(), func(message protocol.ChallengeDuelMessage) bool {
		return message.TargetUserID == target
	})
	s.transport.EXPECT().Send(protocol.EventChallengeDuel, matcher).Return(nil)

	s.coordinator.ChallengeToDuel(target, config)

	message := matcher.Wait()
	s.Require().Equal(config, message.ChallengeConfig)
	s.Require().Equal(s.clock.Now().UnixMilli(), message.Timestamp)

	// No local state until the server starts the duel
	s.Require().Nil(s.coordinator.Duel())
	s.Require().Equal(protocol.DuelNone, s.coordinator.DuelStatus())
}

func (s *Suite) TestUpdateDuelProgress() {
	s.connect()

	// No duel
	s.coordinator.UpdateDuelProgress(10)

	s.startDuel("d1", s.FakeUserID())

	s.transport.EXPECT().
		Send(protocol.EventDuelProgressReport, protocol.DuelProgressMessage{DuelID: "d1", Progress: 42}).
		Return(nil)
	s.coordinator.UpdateDuelProgress(42)

	s.transport.EXPECT().
		Send(protocol.EventDuelProgressReport, protocol.DuelProgressMessage{DuelID: "d1", Progress: 100}).
		Return(nil)
	s.coordinator.UpdateDuelProgress(180)

	// Finished duel
	s.clock.Advance(2 * time.Minute)
	s.coordinator.UpdateDuelProgress(50)
}
