// Package binding adapts the session coordinator to a presentation loop.
//
// A Binding mirrors the coordinator state into its own cells, refreshed on
// every relevant bus notification, and signals the presentation through
// Changes. Commands are plain function values created once per Binding.
package binding

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/six78/arena-cli/pkg/eventbus"
	"github.com/six78/arena-cli/pkg/protocol"
	"github.com/six78/arena-cli/pkg/session"
)

// Session is the part of the coordinator a binding depends on.
type Session interface {
	Connect(userID protocol.UserID, token string)
	Disconnect()
	Bus() *eventbus.Bus
	Snapshot() session.Snapshot

	JoinRoom(roomID protocol.RoomID, userID protocol.UserID, info protocol.ParticipantInfo)
	LeaveRoom()
	SendUpdate(update any)

	ChallengeToDuel(target protocol.UserID, config protocol.ChallengeConfig)
	AcceptDuel(id protocol.DuelID)
	RejectDuel(id protocol.DuelID)
	DismissInvitation(id protocol.DuelID)
	UpdateDuelProgress(progress float64)

	JoinTeam(id protocol.TeamID)
	LeaveTeam()
	StartTeamMission(config protocol.MissionConfig)
	UpdateTeamMissionProgress(progress float64)
}

type Identity struct {
	UserID protocol.UserID
	Token  string
}

type Commands struct {
	JoinRoom   func(roomID protocol.RoomID, userID protocol.UserID, info protocol.ParticipantInfo)
	LeaveRoom  func()
	SendUpdate func(update any)

	ChallengeToDuel    func(target protocol.UserID, config protocol.ChallengeConfig)
	AcceptDuel         func(id protocol.DuelID)
	RejectDuel         func(id protocol.DuelID)
	UpdateDuelProgress func(progress float64)

	JoinTeam                  func(id protocol.TeamID)
	LeaveTeam                 func()
	StartTeamMission          func(config protocol.MissionConfig)
	UpdateTeamMissionProgress func(progress float64)
}

var topics = []eventbus.Topic{
	eventbus.TopicConnecting,
	eventbus.TopicConnected,
	eventbus.TopicDisconnected,
	eventbus.TopicRosterChanged,
	eventbus.TopicInvitationsChanged,
	eventbus.TopicDuelStarted,
	eventbus.TopicDuelUpdated,
	eventbus.TopicDuelEnded,
	eventbus.TopicTeamUpdated,
	eventbus.TopicMissionUpdated,
}

type Binding struct {
	provider *Provider
	logger   *zap.Logger
	commands *Commands
	changes  chan struct{}

	mutex         sync.RWMutex
	mounted       bool
	subscriptions []eventbus.Subscription

	snapshot   session.Snapshot
	lastResult *session.DuelResult
}

func (b *Binding) Mount(identity *Identity) {
	b.mutex.Lock()
	if b.mounted {
		b.mutex.Unlock()
		b.logger.Warn("already mounted")
		return
	}
	b.mounted = true

	bus := b.provider.session.Bus()
	b.subscriptions = make([]eventbus.Subscription, 0, len(topics))
	for _, topic := range topics {
		b.subscriptions = append(b.subscriptions, bus.Subscribe(topic, b.handleEvent))
	}
	b.mutex.Unlock()

	b.refresh()
	b.provider.acquire(identity)
}

// Unmount drops exactly the subscriptions made by Mount and releases the connection.
func (b *Binding) Unmount() {
	b.mutex.Lock()
	if !b.mounted {
		b.mutex.Unlock()
		return
	}
	b.mounted = false

	bus := b.provider.session.Bus()
	for _, sub := range b.subscriptions {
		bus.Unsubscribe(sub)
	}
	b.subscriptions = nil
	b.mutex.Unlock()

	b.provider.release()
}

func (b *Binding) Mounted() bool {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.mounted
}

func (b *Binding) handleEvent(event eventbus.Event) {
	if event.Topic == eventbus.TopicDuelEnded {
		if result, ok := event.Data.(session.DuelResult); ok {
			b.mutex.Lock()
			b.lastResult = &result
			b.mutex.Unlock()
		}
	}
	if event.Topic == eventbus.TopicDuelStarted {
		b.mutex.Lock()
		b.lastResult = nil
		b.mutex.Unlock()
	}
	b.refresh()
}

// refresh takes the snapshot under the binding lock, so that concurrent
// refreshes store them in the order they were taken.
func (b *Binding) refresh() {
	b.mutex.Lock()
	b.snapshot = b.provider.session.Snapshot()
	b.mutex.Unlock()

	select {
	case b.changes <- struct{}{}:
	default:
	}
}

// Changes receives a value whenever the cells changed since the last receive.
func (b *Binding) Changes() <-chan struct{} {
	return b.changes
}

func (b *Binding) Commands() *Commands {
	return b.commands
}

func (b *Binding) Status() session.ConnectionState {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	if b.snapshot.Connection == "" {
		return session.Disconnected
	}
	return b.snapshot.Connection
}

func (b *Binding) RoomID() protocol.RoomID {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.snapshot.RoomID
}

func (b *Binding) Roster() protocol.Roster {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.snapshot.Roster.Copy()
}

func (b *Binding) Duel() *protocol.Duel {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.snapshot.Duel.Copy()
}

func (b *Binding) DuelStatus() protocol.DuelStatus {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	if b.snapshot.DuelStatus == "" {
		return protocol.DuelNone
	}
	return b.snapshot.DuelStatus
}

func (b *Binding) Invitations() []protocol.Invitation {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return slices.Clone(b.snapshot.Invitations)
}

func (b *Binding) Team() *protocol.Team {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.snapshot.Team.Copy()
}

// LastDuelResult is the outcome of the last ended duel, until a new duel starts.
func (b *Binding) LastDuelResult() *session.DuelResult {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	if b.lastResult == nil {
		return nil
	}
	result := *b.lastResult
	result.Duel = result.Duel.Copy()
	return &result
}

func newCommands(s Session) *Commands {
	return &Commands{
		JoinRoom:        s.JoinRoom,
		LeaveRoom:       s.LeaveRoom,
		SendUpdate:      s.SendUpdate,
		ChallengeToDuel: s.ChallengeToDuel,
		AcceptDuel: func(id protocol.DuelID) {
			s.AcceptDuel(id)
			s.DismissInvitation(id)
		},
		RejectDuel:                s.RejectDuel,
		UpdateDuelProgress:        s.UpdateDuelProgress,
		JoinTeam:                  s.JoinTeam,
		LeaveTeam:                 s.LeaveTeam,
		StartTeamMission:          s.StartTeamMission,
		UpdateTeamMissionProgress: s.UpdateTeamMissionProgress,
	}
}
