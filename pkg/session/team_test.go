package session

import (
	"github.com/brianvoe/gofakeit/v6"

	"github.com/six78/arena-cli/pkg/eventbus"
	"github.com/six78/arena-cli/pkg/protocol"
)

func (s *Suite) joinTeam(id protocol.TeamID, mission *protocol.Mission) protocol.Team {
	team := protocol.Team{
		ID:   id,
		Name: gofakeit.Company(),
		Members: []protocol.TeamMember{
			{UserID: s.userID, Name: gofakeit.Username()},
			{UserID: s.FakeUserID(), Name: gofakeit.Username()},
		},
		Mission: mission,
	}
	s.receive(protocol.EventTeamJoined, team)
	return team
}

func (s *Suite) TestJoinTeam() {
	s.connect()

	s.transport.EXPECT().
		Send(protocol.EventJoinTeam, protocol.TeamMembershipMessage{TeamID: "t1", UserID: s.userID}).
		Return(nil)
	s.coordinator.JoinTeam("t1")

	// Nothing changes until the server confirms
	s.Require().Nil(s.coordinator.Team())

	updates := s.record(eventbus.TopicTeamUpdated)
	team := s.joinTeam("t1", nil)

	held := s.coordinator.Team()
	s.Require().NotNil(held)
	s.Require().Equal(team.ID, held.ID)
	s.Require().Equal(team.Members, held.Members)
	s.Require().True(held.HasMember(s.userID))
	s.Require().Len(*updates, 1)
}

func (s *Suite) TestTeamJoinedReplaces() {
	s.connect()
	s.joinTeam("t1", &protocol.Mission{ID: "m1", Name: gofakeit.Word(), Progress: 20})

	s.joinTeam("t2", nil)
	team := s.coordinator.Team()
	s.Require().Equal(protocol.TeamID("t2"), team.ID)
	s.Require().Nil(team.Mission)
}

func (s *Suite) TestMissionMergeNotReplace() {
	s.connect()
	name := gofakeit.Word()
	s.joinTeam("t1", &protocol.Mission{
		ID:       "m1",
		Name:     name,
		Progress: 20,
		Contributions: []protocol.Contribution{
			{UserID: s.userID, Progress: 20},
		},
	})

	missions := s.record(eventbus.TopicMissionUpdated)
	other := s.FakeUserID()
	progress := 35.0
	s.receive(protocol.EventTeamMissionProgress, protocol.MissionPatch{
		TeamID:        "t1",
		MissionID:     "m1",
		Progress:      &progress,
		Contributions: []protocol.Contribution{{UserID: other, Progress: 15}},
	})

	mission := s.coordinator.Team().Mission
	s.Require().NotNil(mission)
	s.Require().Equal(name, mission.Name)
	s.Require().Equal(progress, mission.Progress)
	s.Require().Equal([]protocol.Contribution{
		{UserID: s.userID, Progress: 20},
		{UserID: other, Progress: 15},
	}, mission.Contributions)
	s.Require().Len(*missions, 1)

	// Another team is ignored
	s.receive(protocol.EventTeamMissionProgress, protocol.MissionPatch{
		TeamID:    "t2",
		MissionID: "m9",
	})
	s.Require().Equal(protocol.MissionID("m1"), s.coordinator.Team().Mission.ID)
	s.Require().Len(*missions, 1)
}

func (s *Suite) TestMissionStartedByProgress() {
	s.connect()
	s.joinTeam("t1", nil)

	name := gofakeit.Word()
	s.receive(protocol.EventTeamMissionProgress, protocol.MissionPatch{
		MissionID: "m1",
		Name:      &name,
	})

	mission := s.coordinator.Team().Mission
	s.Require().NotNil(mission)
	s.Require().Equal(protocol.MissionID("m1"), mission.ID)
	s.Require().Equal(name, mission.Name)
}

func (s *Suite) TestMissionProgressWithoutID() {
	s.connect()
	s.joinTeam("t1", nil)
	missions := s.record(eventbus.TopicMissionUpdated)

	progress := 40.0
	s.receive(protocol.EventTeamMissionProgress, protocol.MissionPatch{
		TeamID:   "t1",
		Progress: &progress,
	})
	s.Require().Nil(s.coordinator.Team().Mission)
	s.Require().Empty(*missions)

	// Nothing to report without a mission
	s.coordinator.UpdateTeamMissionProgress(10)
}

func (s *Suite) TestStartTeamMission() {
	s.connect()
	config := protocol.MissionConfig{Name: gofakeit.Word(), Goal: 100, DurationSeconds: 300}

	// No team
	s.coordinator.StartTeamMission(config)

	s.joinTeam("t1", nil)
	s.transport.EXPECT().
		Send(protocol.EventStartTeamMission, protocol.StartMissionMessage{TeamID: "t1", MissionConfig: config}).
		Return(nil)
	s.coordinator.StartTeamMission(config)
}

func (s *Suite) TestUpdateTeamMissionProgress() {
	s.connect()
	s.joinTeam("t1", nil)

	// No active mission
	s.coordinator.UpdateTeamMissionProgress(10)

	s.joinTeam("t1", &protocol.Mission{ID: "m1"})
	s.transport.EXPECT().
		Send(protocol.EventTeamMissionProgressReport, protocol.MissionProgressMessage{
			TeamID:    "t1",
			MissionID: "m1",
			Progress:  0,
		}).
		Return(nil)
	s.coordinator.UpdateTeamMissionProgress(-5)
}

func (s *Suite) TestLeaveTeam() {
	s.connect()

	// No team
	s.coordinator.LeaveTeam()

	s.joinTeam("t1", nil)
	updates := s.record(eventbus.TopicTeamUpdated)

	s.transport.EXPECT().
		Send(protocol.EventLeaveTeam, protocol.TeamMembershipMessage{TeamID: "t1", UserID: s.userID}).
		Return(nil)
	s.coordinator.LeaveTeam()

	s.Require().Nil(s.coordinator.Team())
	s.Require().Len(*updates, 1)
	s.Require().Nil((*updates)[0])

	// Progress after leaving is dropped
	s.receive(protocol.EventTeamMissionProgress, protocol.MissionPatch{TeamID: "t1", MissionID: "m1"})
	s.Require().Nil(s.coordinator.Team())
}
