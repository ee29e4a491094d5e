package devserver

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/six78/arena-cli/pkg/protocol"
)

// peer is one client connection, in either transport mode.
type peer interface {
	ID() string
	UserID() protocol.UserID
	// Deliver queues the envelope without blocking. Returns false when the peer is gone.
	Deliver(envelope *protocol.Envelope) bool
	Close()
}

type pendingDuel struct {
	invitation protocol.Invitation
	target     protocol.UserID
}

// hub routes commands between connected users. It applies no game rules
// beyond turning each command into the inbound events the other side expects.
type hub struct {
	logger *zap.Logger
	clock  clockwork.Clock

	mutex    sync.Mutex
	peers    map[protocol.UserID]map[string]peer
	rooms    map[protocol.RoomID]map[protocol.UserID]protocol.Participant
	userRoom map[protocol.UserID]protocol.RoomID
	pending  map[protocol.DuelID]pendingDuel
	duels    map[protocol.DuelID]*protocol.Duel
	teams    map[protocol.TeamID]*protocol.Team
}

func newHub(logger *zap.Logger, clock clockwork.Clock) *hub {
	return &hub{
		logger:   logger.Named("hub"),
		clock:    clock,
		peers:    make(map[protocol.UserID]map[string]peer),
		rooms:    make(map[protocol.RoomID]map[protocol.UserID]protocol.Participant),
		userRoom: make(map[protocol.UserID]protocol.RoomID),
		pending:  make(map[protocol.DuelID]pendingDuel),
		duels:    make(map[protocol.DuelID]*protocol.Duel),
		teams:    make(map[protocol.TeamID]*protocol.Team),
	}
}

func (h *hub) register(p peer) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	connections, ok := h.peers[p.UserID()]
	if !ok {
		connections = make(map[string]peer)
		h.peers[p.UserID()] = connections
	}
	connections[p.ID()] = p

	h.logger.Info("peer registered",
		zap.String("peerID", p.ID()),
		zap.String("userID", string(p.UserID())),
		zap.Int("connections", len(connections)),
	)
}

// unregister drops the peer. The user leaves its room once the last connection is gone.
func (h *hub) unregister(p peer) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	connections := h.peers[p.UserID()]
	if _, ok := connections[p.ID()]; !ok {
		return
	}
	delete(connections, p.ID())

	h.logger.Info("peer unregistered",
		zap.String("peerID", p.ID()),
		zap.String("userID", string(p.UserID())),
	)

	if len(connections) > 0 {
		return
	}
	delete(h.peers, p.UserID())
	h.leaveRoom(p.UserID())
}

// closeAll disconnects every peer and forgets all routing state.
func (h *hub) closeAll() {
	h.mutex.Lock()
	var peers []peer
	for _, connections := range h.peers {
		for _, p := range connections {
			peers = append(peers, p)
		}
	}
	h.peers = make(map[protocol.UserID]map[string]peer)
	h.rooms = make(map[protocol.RoomID]map[protocol.UserID]protocol.Participant)
	h.userRoom = make(map[protocol.UserID]protocol.RoomID)
	h.mutex.Unlock()

	for _, p := range peers {
		p.Close()
	}
}

func (h *hub) online(userID protocol.UserID) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.peers[userID]) > 0
}

func (h *hub) stats() (users int, rooms int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.peers), len(h.rooms)
}

func (h *hub) handle(from protocol.UserID, envelope *protocol.Envelope) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	var err error
	switch envelope.Event {
	case protocol.EventJoinRoom:
		err = apply(envelope, func(m *protocol.JoinRoomMessage) { h.joinRoom(from, m) })
	case protocol.EventLeaveRoom:
		h.leaveRoom(from)
	case protocol.EventRoomUpdate:
		err = apply(envelope, func(m *protocol.RoomUpdateMessage) { h.roomUpdate(from, m) })
	case protocol.EventChallengeDuel:
		err = apply(envelope, func(m *protocol.ChallengeDuelMessage) { h.challenge(from, m) })
	case protocol.EventAcceptDuel:
		err = apply(envelope, func(m *protocol.DuelDecisionMessage) { h.accept(from, m) })
	case protocol.EventRejectDuel:
		err = apply(envelope, func(m *protocol.DuelDecisionMessage) { h.reject(from, m) })
	case protocol.EventDuelProgressReport:
		err = apply(envelope, func(m *protocol.DuelProgressMessage) { h.duelProgress(from, m) })
	case protocol.EventJoinTeam:
		err = apply(envelope, func(m *protocol.TeamMembershipMessage) { h.joinTeam(from, m) })
	case protocol.EventLeaveTeam:
		err = apply(envelope, func(m *protocol.TeamMembershipMessage) { h.leaveTeam(from, m) })
	case protocol.EventStartTeamMission:
		err = apply(envelope, func(m *protocol.StartMissionMessage) { h.startMission(m) })
	case protocol.EventTeamMissionProgressReport:
		err = apply(envelope, func(m *protocol.MissionProgressMessage) { h.missionProgress(from, m) })
	default:
		h.logger.Warn("unknown command", zap.String("event", envelope.Event.String()))
		return
	}

	if err != nil {
		h.logger.Warn("failed to decode command",
			zap.String("event", envelope.Event.String()),
			zap.String("userID", string(from)),
			zap.Error(err),
		)
	}
}

func apply[T any](envelope *protocol.Envelope, fn func(*T)) error {
	message, err := protocol.Decode[T](envelope)
	if err != nil {
		return err
	}
	fn(message)
	return nil
}

func (h *hub) sendUser(userID protocol.UserID, event protocol.EventName, payload any) {
	envelope, err := protocol.NewEnvelope(event, payload)
	if err != nil {
		h.logger.Error("failed to build envelope", zap.Error(err))
		return
	}
	for _, p := range h.peers[userID] {
		if !p.Deliver(envelope) {
			h.logger.Warn("peer queue overflow", zap.String("peerID", p.ID()))
		}
	}
}

func (h *hub) sendRoom(roomID protocol.RoomID, except protocol.UserID, event protocol.EventName, payload any) {
	for userID := range h.rooms[roomID] {
		if userID == except {
			continue
		}
		h.sendUser(userID, event, payload)
	}
}

func (h *hub) joinRoom(userID protocol.UserID, message *protocol.JoinRoomMessage) {
	if message.RoomID.Empty() {
		return
	}
	if current, ok := h.userRoom[userID]; ok && current != message.RoomID {
		h.leaveRoom(userID)
	}

	members, ok := h.rooms[message.RoomID]
	if !ok {
		members = make(map[protocol.UserID]protocol.Participant)
		h.rooms[message.RoomID] = members
	}

	participant := protocol.Participant{ID: userID, ParticipantInfo: message.UserInfo}
	members[userID] = participant
	h.userRoom[userID] = message.RoomID

	h.sendRoom(message.RoomID, userID, protocol.EventUserJoined, protocol.ParticipantJoined{
		Participant: participant,
		RoomID:      message.RoomID,
	})

	roster := protocol.RoomParticipants{
		RoomID:       message.RoomID,
		Participants: make([]protocol.Participant, 0, len(members)),
	}
	for _, member := range members {
		roster.Participants = append(roster.Participants, member)
	}
	h.sendUser(userID, protocol.EventRoomParticipants, roster)
}

func (h *hub) leaveRoom(userID protocol.UserID) {
	roomID, ok := h.userRoom[userID]
	if !ok {
		return
	}
	delete(h.userRoom, userID)

	members := h.rooms[roomID]
	delete(members, userID)
	if len(members) == 0 {
		delete(h.rooms, roomID)
		return
	}

	h.sendRoom(roomID, "", protocol.EventUserLeft, protocol.ParticipantLeft{
		UserID: userID,
		RoomID: roomID,
	})
}

func (h *hub) roomUpdate(userID protocol.UserID, message *protocol.RoomUpdateMessage) {
	roomID, ok := h.userRoom[userID]
	if !ok || (message.RoomID != "" && message.RoomID != roomID) {
		return
	}
	h.sendRoom(roomID, "", protocol.EventRoomUpdated, protocol.RoomUpdated{
		RoomID: roomID,
		UserID: userID,
		Update: message.Update,
	})
}

func (h *hub) userName(userID protocol.UserID) string {
	if participant, ok := h.rooms[h.userRoom[userID]][userID]; ok {
		return participant.Name
	}
	return ""
}

func (h *hub) challenge(from protocol.UserID, message *protocol.ChallengeDuelMessage) {
	if message.TargetUserID == "" || message.TargetUserID == from {
		return
	}

	invitation := protocol.Invitation{
		ID:              protocol.DuelID(uuid.New().String()),
		FromUserID:      from,
		FromUserName:    h.userName(from),
		ChallengeConfig: message.ChallengeConfig,
	}
	h.pending[invitation.ID] = pendingDuel{
		invitation: invitation,
		target:     message.TargetUserID,
	}
	h.sendUser(message.TargetUserID, protocol.EventDuelInvite, invitation)
}

func (h *hub) accept(from protocol.UserID, message *protocol.DuelDecisionMessage) {
	pending, ok := h.pending[message.DuelID]
	if !ok || pending.target != from {
		return
	}
	delete(h.pending, message.DuelID)

	now := h.clock.Now()
	duel := &protocol.Duel{
		ID: message.DuelID,
		Participants: []protocol.DuelProgress{
			{UserID: pending.invitation.FromUserID},
			{UserID: from},
		},
		ChallengeName: pending.invitation.ChallengeConfig.Name,
		StartTime:     now.UnixMilli(),
	}
	if seconds := pending.invitation.ChallengeConfig.DurationSeconds; seconds > 0 {
		duel.EndTime = duel.StartTime + int64(seconds)*1000
	}
	h.duels[duel.ID] = duel

	for _, participant := range duel.Participants {
		h.sendUser(participant.UserID, protocol.EventDuelStarted, duel)
	}
}

func (h *hub) reject(from protocol.UserID, message *protocol.DuelDecisionMessage) {
	pending, ok := h.pending[message.DuelID]
	if !ok || pending.target != from {
		return
	}
	delete(h.pending, message.DuelID)
}

func (h *hub) duelProgress(from protocol.UserID, message *protocol.DuelProgressMessage) {
	duel, ok := h.duels[message.DuelID]
	if !ok {
		return
	}
	index := slices.IndexFunc(duel.Participants, func(p protocol.DuelProgress) bool {
		return p.UserID == from
	})
	if index < 0 {
		return
	}

	progress := protocol.ClampProgress(message.Progress)
	duel.Participants[index].Progress = progress

	patch := protocol.DuelPatch{
		ID:           duel.ID,
		Participants: []protocol.DuelProgress{{UserID: from, Progress: progress}},
	}
	for _, participant := range duel.Participants {
		h.sendUser(participant.UserID, protocol.EventDuelProgress, patch)
	}

	if progress < 100 {
		return
	}

	delete(h.duels, duel.ID)
	ended := protocol.DuelEnded{ID: duel.ID, WinnerID: from}
	for _, participant := range duel.Participants {
		h.sendUser(participant.UserID, protocol.EventDuelEnded, ended)
	}
}

func (h *hub) sendTeam(team *protocol.Team, event protocol.EventName, payload any) {
	for _, member := range team.Members {
		h.sendUser(member.UserID, event, payload)
	}
}

func (h *hub) joinTeam(from protocol.UserID, message *protocol.TeamMembershipMessage) {
	if message.TeamID == "" {
		return
	}
	userID := message.UserID
	if userID == "" {
		userID = from
	}

	team, ok := h.teams[message.TeamID]
	if !ok {
		team = &protocol.Team{ID: message.TeamID, Name: string(message.TeamID)}
		h.teams[message.TeamID] = team
	}
	if !team.HasMember(userID) {
		team.Members = append(team.Members, protocol.TeamMember{
			UserID: userID,
			Name:   h.userName(userID),
		})
	}

	h.sendTeam(team, protocol.EventTeamJoined, team)
}

func (h *hub) leaveTeam(from protocol.UserID, message *protocol.TeamMembershipMessage) {
	team, ok := h.teams[message.TeamID]
	if !ok {
		return
	}
	userID := message.UserID
	if userID == "" {
		userID = from
	}

	team.Members = slices.DeleteFunc(team.Members, func(m protocol.TeamMember) bool {
		return m.UserID == userID
	})
	if len(team.Members) == 0 {
		delete(h.teams, team.ID)
		return
	}
	h.sendTeam(team, protocol.EventTeamJoined, team)
}

func (h *hub) startMission(message *protocol.StartMissionMessage) {
	team, ok := h.teams[message.TeamID]
	if !ok {
		return
	}

	team.Mission = &protocol.Mission{
		ID:            protocol.MissionID(uuid.New().String()),
		Name:          message.MissionConfig.Name,
		Contributions: []protocol.Contribution{},
	}

	name := team.Mission.Name
	progress := 0.0
	h.sendTeam(team, protocol.EventTeamMissionProgress, protocol.MissionPatch{
		TeamID:    team.ID,
		MissionID: team.Mission.ID,
		Name:      &name,
		Progress:  &progress,
	})
}

// missionProgress records the contribution and reports the team average.
func (h *hub) missionProgress(from protocol.UserID, message *protocol.MissionProgressMessage) {
	team, ok := h.teams[message.TeamID]
	if !ok || team.Mission == nil || team.Mission.ID != message.MissionID || !team.HasMember(from) {
		return
	}

	mission := team.Mission
	contribution := protocol.Contribution{UserID: from, Progress: protocol.ClampProgress(message.Progress)}
	index := slices.IndexFunc(mission.Contributions, func(c protocol.Contribution) bool {
		return c.UserID == from
	})
	if index < 0 {
		mission.Contributions = append(mission.Contributions, contribution)
	} else {
		mission.Contributions[index] = contribution
	}

	total := 0.0
	for _, c := range mission.Contributions {
		total += c.Progress
	}
	mission.Progress = protocol.ClampProgress(total / float64(len(team.Members)))

	progress := mission.Progress
	h.sendTeam(team, protocol.EventTeamMissionProgress, protocol.MissionPatch{
		TeamID:        team.ID,
		MissionID:     mission.ID,
		Progress:      &progress,
		Contributions: []protocol.Contribution{contribution},
	})
}
