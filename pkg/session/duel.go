package session

import (
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/six78/arena-cli/pkg/eventbus"
	"github.com/six78/arena-cli/pkg/protocol"
)

// ChallengeToDuel sends a challenge. Nothing changes locally until the
// server announces the duel.
func (c *Coordinator) ChallengeToDuel(target protocol.UserID, config protocol.ChallengeConfig) {
	c.mutex.Lock()
	online := c.online()
	c.mutex.Unlock()

	if !online {
		c.logger.Debug("dropped challenge while offline")
		return
	}

	c.send(protocol.EventChallengeDuel, protocol.ChallengeDuelMessage{
		TargetUserID:    target,
		ChallengeConfig: config,
		Timestamp:       c.timestamp(),
	})
}

// AcceptDuel only notifies the server. The invitation stays pending
// until the duel starts.
func (c *Coordinator) AcceptDuel(id protocol.DuelID) {
	c.mutex.Lock()
	online := c.online()
	c.mutex.Unlock()

	if !online {
		c.logger.Debug("dropped duel accept while offline", zap.String("duelID", string(id)))
		return
	}

	c.send(protocol.EventAcceptDuel, protocol.DuelDecisionMessage{DuelID: id})
}

func (c *Coordinator) RejectDuel(id protocol.DuelID) {
	c.mutex.Lock()
	removed := c.removeInvitation(id)
	online := c.online()
	invitations := slices.Clone(c.invitations)
	c.mutex.Unlock()

	if online {
		c.send(protocol.EventRejectDuel, protocol.DuelDecisionMessage{DuelID: id})
	} else {
		c.logger.Debug("dropped duel reject while offline", zap.String("duelID", string(id)))
	}

	if removed {
		c.bus.Publish(eventbus.TopicInvitationsChanged, invitations)
	}
}

// DismissInvitation removes a pending invitation without notifying the server.
func (c *Coordinator) DismissInvitation(id protocol.DuelID) {
	c.mutex.Lock()
	removed := c.removeInvitation(id)
	invitations := slices.Clone(c.invitations)
	c.mutex.Unlock()

	if removed {
		c.bus.Publish(eventbus.TopicInvitationsChanged, invitations)
	}
}

// UpdateDuelProgress reports the local progress of the active duel.
func (c *Coordinator) UpdateDuelProgress(progress float64) {
	c.mutex.Lock()
	status := c.duelStatus()
	var duelID protocol.DuelID
	if c.duel != nil {
		duelID = c.duel.ID
	}
	online := c.online()
	c.mutex.Unlock()

	if status != protocol.DuelActive {
		c.logger.Debug("no active duel", zap.String("status", string(status)))
		return
	}
	if !online {
		c.logger.Debug("dropped duel progress while offline")
		return
	}

	c.send(protocol.EventDuelProgressReport, protocol.DuelProgressMessage{
		DuelID:   duelID,
		Progress: protocol.ClampProgress(progress),
	})
}

func (c *Coordinator) removeInvitation(id protocol.DuelID) bool {
	index := c.invitationIndex(id)
	if index < 0 {
		return false
	}
	c.invitations = slices.Delete(c.invitations, index, index+1)
	return true
}

func (c *Coordinator) invitationIndex(id protocol.DuelID) int {
	return slices.IndexFunc(c.invitations, func(invitation protocol.Invitation) bool {
		return invitation.ID == id
	})
}

func (c *Coordinator) invitationsChanged() notification {
	return notification{topic: eventbus.TopicInvitationsChanged, data: slices.Clone(c.invitations)}
}

func (c *Coordinator) handleDuelInvite(invitation *protocol.Invitation) []notification {
	if invitation.ID == "" {
		c.logger.Warn("invitation without id")
		return nil
	}
	if c.invitationIndex(invitation.ID) >= 0 {
		c.logger.Debug("duplicate invitation", zap.String("duelID", string(invitation.ID)))
		return nil
	}

	invitation.ReceivedAt = c.timestamp()
	c.invitations = append(c.invitations, *invitation)

	if limit := c.config.InvitationsLimit; limit > 0 && len(c.invitations) > limit {
		c.invitations = slices.Delete(c.invitations, 0, len(c.invitations)-limit)
	}

	c.logger.Info("duel invitation received",
		zap.String("duelID", string(invitation.ID)),
		zap.String("from", string(invitation.FromUserID)),
	)

	return []notification{
		{topic: eventbus.TopicDuelInvited, data: *invitation},
		c.invitationsChanged(),
	}
}

// handleDuelStarted replaces any held duel. Pending invitations are superseded.
func (c *Coordinator) handleDuelStarted(duel *protocol.Duel) []notification {
	if duel.ID == "" {
		c.logger.Warn("duel without id")
		return nil
	}

	for i := range duel.Participants {
		duel.Participants[i].Progress = protocol.ClampProgress(duel.Participants[i].Progress)
	}

	c.duel = duel
	c.logger.Info("duel started", zap.String("duelID", string(duel.ID)))

	notifications := make([]notification, 0, 2)
	if len(c.invitations) > 0 {
		c.invitations = nil
		notifications = append(notifications, c.invitationsChanged())
	}
	return append(notifications, notification{topic: eventbus.TopicDuelStarted, data: c.duel.Copy()})
}

func (c *Coordinator) handleDuelProgress(patch *protocol.DuelPatch) []notification {
	if c.duel == nil {
		c.logger.Debug("duel progress without duel", zap.String("duelID", string(patch.ID)))
		return nil
	}

	before := c.duel.Copy()
	if !c.duel.Apply(patch) {
		c.logger.Debug("duel progress for another duel",
			zap.String("duelID", string(patch.ID)),
			zap.String("current", string(c.duel.ID)),
		)
		return nil
	}
	c.logDiff("duel updated", before, c.duel)

	return []notification{{topic: eventbus.TopicDuelUpdated, data: c.duel.Copy()}}
}

func (c *Coordinator) handleDuelEnded(message *protocol.DuelEnded) []notification {
	if c.duel == nil {
		return nil
	}
	if message.ID != "" && message.ID != c.duel.ID {
		c.logger.Debug("another duel ended", zap.String("duelID", string(message.ID)))
		return nil
	}

	result := DuelResult{
		Duel:     c.duel,
		WinnerID: message.WinnerID,
	}
	c.duel = nil

	c.logger.Info("duel ended",
		zap.String("duelID", string(result.Duel.ID)),
		zap.String("winner", string(result.WinnerID)),
	)
	return []notification{{topic: eventbus.TopicDuelEnded, data: result}}
}
