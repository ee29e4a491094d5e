package session

import (
	"go.uber.org/zap"

	"github.com/six78/arena-cli/pkg/eventbus"
	"github.com/six78/arena-cli/pkg/protocol"
)

func (c *Coordinator) JoinTeam(id protocol.TeamID) {
	if id == "" {
		c.logger.Warn("empty team id")
		return
	}

	c.mutex.Lock()
	online := c.online()
	userID := c.localUser()
	c.mutex.Unlock()

	if !online {
		c.logger.Debug("dropped team join while offline")
		return
	}

	c.send(protocol.EventJoinTeam, protocol.TeamMembershipMessage{
		TeamID: id,
		UserID: userID,
	})
}

// LeaveTeam leaves the current team and forgets it locally.
func (c *Coordinator) LeaveTeam() {
	c.mutex.Lock()
	if c.team == nil {
		c.mutex.Unlock()
		c.logger.Debug("no team to leave")
		return
	}
	message := protocol.TeamMembershipMessage{
		TeamID: c.team.ID,
		UserID: c.localUser(),
	}
	c.team = nil
	online := c.online()
	c.mutex.Unlock()

	if online {
		c.send(protocol.EventLeaveTeam, message)
	} else {
		c.logger.Debug("dropped team leave while offline")
	}

	c.bus.Publish(eventbus.TopicTeamUpdated, (*protocol.Team)(nil))
}

func (c *Coordinator) StartTeamMission(config protocol.MissionConfig) {
	c.mutex.Lock()
	var teamID protocol.TeamID
	if c.team != nil {
		teamID = c.team.ID
	}
	online := c.online()
	c.mutex.Unlock()

	if teamID == "" {
		c.logger.Debug("mission start without team")
		return
	}
	if !online {
		c.logger.Debug("dropped mission start while offline")
		return
	}

	c.send(protocol.EventStartTeamMission, protocol.StartMissionMessage{
		TeamID:        teamID,
		MissionConfig: config,
	})
}

func (c *Coordinator) UpdateTeamMissionProgress(progress float64) {
	c.mutex.Lock()
	var message protocol.MissionProgressMessage
	if c.team != nil && c.team.Mission != nil {
		message = protocol.MissionProgressMessage{
			TeamID:    c.team.ID,
			MissionID: c.team.Mission.ID,
			Progress:  protocol.ClampProgress(progress),
		}
	}
	online := c.online()
	c.mutex.Unlock()

	if message.TeamID == "" {
		c.logger.Debug("mission progress without active mission")
		return
	}
	if !online {
		c.logger.Debug("dropped mission progress while offline")
		return
	}

	c.send(protocol.EventTeamMissionProgressReport, message)
}

// handleTeamJoined replaces the held team.
func (c *Coordinator) handleTeamJoined(team *protocol.Team) []notification {
	if team.ID == "" {
		c.logger.Warn("team without id")
		return nil
	}

	if team.Mission != nil {
		team.Mission.Progress = protocol.ClampProgress(team.Mission.Progress)
	}
	c.team = team

	c.logger.Info("team joined",
		zap.String("teamID", string(team.ID)),
		zap.Int("members", len(team.Members)),
	)
	return []notification{{topic: eventbus.TopicTeamUpdated, data: c.team.Copy()}}
}

func (c *Coordinator) handleTeamMissionProgress(patch *protocol.MissionPatch) []notification {
	if c.team == nil {
		c.logger.Debug("mission progress without team", zap.String("teamID", string(patch.TeamID)))
		return nil
	}

	before := c.team.Copy()
	if !c.team.ApplyMission(patch) {
		c.logger.Debug("mission progress ignored",
			zap.String("teamID", string(patch.TeamID)),
			zap.String("missionID", string(patch.MissionID)),
			zap.String("current", string(c.team.ID)),
		)
		return nil
	}
	c.logDiff("mission updated", before, c.team)

	return []notification{{topic: eventbus.TopicMissionUpdated, data: c.team.Copy()}}
}
