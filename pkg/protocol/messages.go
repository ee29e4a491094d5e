package protocol

import "encoding/json"

const Version byte = 1

type EventName string

// Inbound events, pushed by the coordination server.
const (
	EventUserJoined          EventName = "user-joined"
	EventUserLeft            EventName = "user-left"
	EventRoomParticipants    EventName = "room-participants"
	EventRoomUpdated         EventName = "room-updated"
	EventDuelInvite          EventName = "duel-invite"
	EventDuelStarted         EventName = "duel-started"
	EventDuelProgress        EventName = "duel-progress"
	EventDuelEnded           EventName = "duel-ended"
	EventTeamJoined          EventName = "team-joined"
	EventTeamMissionProgress EventName = "team-mission-progress"
)

// Outbound commands, sent by the local user.
const (
	EventJoinRoom                  EventName = "join-room"
	EventLeaveRoom                 EventName = "leave-room"
	EventRoomUpdate                EventName = "room-update"
	EventChallengeDuel             EventName = "challenge-duel"
	EventAcceptDuel                EventName = "accept-duel"
	EventRejectDuel                EventName = "reject-duel"
	EventDuelProgressReport        EventName = "update-duel-progress"
	EventJoinTeam                  EventName = "join-team"
	EventLeaveTeam                 EventName = "leave-team"
	EventStartTeamMission          EventName = "start-team-mission"
	EventTeamMissionProgressReport EventName = "update-team-mission-progress"
)

// Connection lifecycle pseudo-events. These never travel on the wire,
// the transport dispatches them to subscribers like any other event.
const (
	EventConnecting EventName = "connecting"
	EventConnect    EventName = "connect"
	EventDisconnect EventName = "disconnect"
)

func (e EventName) String() string {
	return string(e)
}

func (e EventName) Lifecycle() bool {
	return e == EventConnecting || e == EventConnect || e == EventDisconnect
}

// Envelope is the frame both transport modes carry.
type Envelope struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinRoomMessage struct {
	RoomID   RoomID          `json:"roomId"`
	UserID   UserID          `json:"userId"`
	UserInfo ParticipantInfo `json:"userInfo"`
}

type LeaveRoomMessage struct {
	RoomID RoomID `json:"roomId"`
}

type RoomUpdateMessage struct {
	RoomID RoomID `json:"roomId"`
	Update any    `json:"update"`
}

type ChallengeDuelMessage struct {
	TargetUserID    UserID          `json:"targetUserId"`
	ChallengeConfig ChallengeConfig `json:"challengeConfig"`
	Timestamp       int64           `json:"timestamp"`
}

type DuelDecisionMessage struct {
	DuelID DuelID `json:"duelId"`
}

type DuelProgressMessage struct {
	DuelID   DuelID  `json:"duelId"`
	Progress float64 `json:"progress"`
}

type TeamMembershipMessage struct {
	TeamID TeamID `json:"teamId"`
	UserID UserID `json:"userId"`
}

type StartMissionMessage struct {
	TeamID        TeamID        `json:"teamId"`
	MissionConfig MissionConfig `json:"missionConfig"`
}

type MissionProgressMessage struct {
	TeamID    TeamID    `json:"teamId"`
	MissionID MissionID `json:"missionId"`
	Progress  float64   `json:"progress"`
}
