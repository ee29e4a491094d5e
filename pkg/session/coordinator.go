package session

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/six78/arena-cli/internal/transport"
	"github.com/six78/arena-cli/pkg/eventbus"
	"github.com/six78/arena-cli/pkg/protocol"
)

// Coordinator keeps the local view of the presence roster, the duel, the team
// and the pending invitations consistent with the server pushes.
//
// All state is mutated here. Inbound envelopes are applied under the mutex and
// notifications are published on the bus after the mutex is released, on the
// same goroutine, so consumers observe changes in arrival order and may call
// back into the coordinator.
type Coordinator struct {
	logger    *zap.Logger
	transport transport.Service
	clock     clockwork.Clock
	bus       *eventbus.Bus
	config    configuration

	mutex         sync.Mutex
	subscriptions []transport.Unsubscribe

	connection ConnectionState
	userID     protocol.UserID

	roomID   protocol.RoomID
	roomUser protocol.UserID
	roomInfo protocol.ParticipantInfo
	roster   protocol.Roster

	duel        *protocol.Duel
	invitations []protocol.Invitation
	team        *protocol.Team
}

func NewCoordinator(opts []Option) *Coordinator {
	c := &Coordinator{
		connection: Disconnected,
		config:     defaultConfig,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.Named("session")

	if c.transport == nil {
		c.logger.Error("transport is required")
		return nil
	}

	if c.clock == nil {
		c.logger.Error("clock is required")
		return nil
	}

	if c.bus == nil {
		c.bus = eventbus.New(c.logger)
	}

	return c
}

// Start registers the transport handlers. Connect calls it implicitly.
func (c *Coordinator) Start() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.subscribe()
}

// Stop disconnects and drops every bus subscription.
func (c *Coordinator) Stop() {
	c.Disconnect()
	c.bus.Close()
}

func (c *Coordinator) Bus() *eventbus.Bus {
	return c.bus
}

func (c *Coordinator) subscribe() {
	if c.subscriptions != nil {
		return
	}

	handlers := map[protocol.EventName]transport.Handler{
		protocol.EventConnecting: c.handleLifecycle(Connecting),
		protocol.EventConnect:    c.handleLifecycle(Connected),
		protocol.EventDisconnect: c.handleLifecycle(Disconnected),

		protocol.EventUserJoined:       handle(c, c.handleParticipantJoined),
		protocol.EventUserLeft:         handle(c, c.handleParticipantLeft),
		protocol.EventRoomParticipants: handle(c, c.handleRoomParticipants),
		protocol.EventRoomUpdated:      handle(c, c.handleRoomUpdated),

		protocol.EventDuelInvite:   handle(c, c.handleDuelInvite),
		protocol.EventDuelStarted:  handle(c, c.handleDuelStarted),
		protocol.EventDuelProgress: handle(c, c.handleDuelProgress),
		protocol.EventDuelEnded:    handle(c, c.handleDuelEnded),

		protocol.EventTeamJoined:          handle(c, c.handleTeamJoined),
		protocol.EventTeamMissionProgress: handle(c, c.handleTeamMissionProgress),
	}

	c.subscriptions = make([]transport.Unsubscribe, 0, len(handlers))
	for event, handler := range handlers {
		c.subscriptions = append(c.subscriptions, c.transport.Subscribe(event, handler))
	}
}

func (c *Coordinator) unsubscribe() {
	for _, unsubscribe := range c.subscriptions {
		if unsubscribe != nil {
			unsubscribe()
		}
	}
	c.subscriptions = nil
}

// Connect starts connecting with the given credentials.
// The result is reported through the connection state.
// Does nothing unless disconnected.
func (c *Coordinator) Connect(userID protocol.UserID, token string) {
	c.mutex.Lock()
	if c.connection != Disconnected {
		c.mutex.Unlock()
		c.logger.Debug("already connected", zap.Stringer("state", c.ConnectionState()))
		return
	}
	c.subscribe()
	c.userID = userID
	c.setConnection(Connecting)
	c.mutex.Unlock()

	c.bus.Publish(eventbus.TopicConnecting, Connecting)

	c.logger.Info("connecting", zap.String("userID", string(userID)))
	c.transport.Connect(transport.Credentials{
		UserID: userID,
		Token:  token,
	})
}

// Disconnect closes the connection. The transport drops its handlers,
// they are registered again on the next Connect.
func (c *Coordinator) Disconnect() {
	c.transport.Disconnect()

	c.mutex.Lock()
	c.subscriptions = nil
	changed := c.setConnection(Disconnected)
	c.mutex.Unlock()

	if changed {
		c.bus.Publish(eventbus.TopicDisconnected, Disconnected)
	}
}

func (c *Coordinator) setConnection(state ConnectionState) bool {
	if c.connection == state {
		return false
	}
	c.logger.Debug("connection state changed",
		zap.Stringer("from", c.connection),
		zap.Stringer("to", state),
	)
	c.connection = state
	return true
}

func (c *Coordinator) handleLifecycle(state ConnectionState) transport.Handler {
	topics := map[ConnectionState]eventbus.Topic{
		Connecting:   eventbus.TopicConnecting,
		Connected:    eventbus.TopicConnected,
		Disconnected: eventbus.TopicDisconnected,
	}

	return func(*protocol.Envelope) {
		c.mutex.Lock()
		changed := c.setConnection(state)
		rejoin := state == Connected && !c.roomID.Empty()
		join := c.joinRoomMessage()
		c.mutex.Unlock()

		if !changed {
			return
		}

		if rejoin {
			c.logger.Info("joining room after connect", zap.String("roomID", join.RoomID.String()))
			c.send(protocol.EventJoinRoom, join)
		}

		c.bus.Publish(topics[state], state)
	}
}

// handle decodes the envelope payload and applies it under the state mutex.
func handle[T any](c *Coordinator, apply func(*T) []notification) transport.Handler {
	return func(envelope *protocol.Envelope) {
		payload, err := protocol.Decode[T](envelope)
		if err != nil {
			c.logger.Warn("failed to decode payload",
				zap.String("event", envelope.Event.String()),
				zap.Error(err),
			)
			return
		}

		c.mutex.Lock()
		notifications := apply(payload)
		c.mutex.Unlock()

		c.publish(notifications)
	}
}

func (c *Coordinator) publish(notifications []notification) {
	for _, n := range notifications {
		c.bus.Publish(n.topic, n.data)
	}
}

// send is best effort: commands issued while disconnected are dropped.
func (c *Coordinator) send(event protocol.EventName, payload any) {
	err := c.transport.Send(event, payload)
	if errors.Is(err, transport.ErrNotConnected) {
		c.logger.Debug("dropped command while offline", zap.String("event", event.String()))
		return
	}
	if err != nil {
		c.logger.Warn("failed to send command",
			zap.String("event", event.String()),
			zap.Error(err),
		)
	}
}

func (c *Coordinator) online() bool {
	return c.connection == Connected
}

func (c *Coordinator) timestamp() int64 {
	return c.clock.Now().UnixMilli()
}

func (c *Coordinator) ConnectionState() ConnectionState {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.connection
}

func (c *Coordinator) UserID() protocol.UserID {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.localUser()
}

func (c *Coordinator) RoomID() protocol.RoomID {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.roomID
}

func (c *Coordinator) Roster() protocol.Roster {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.roster.Copy()
}

func (c *Coordinator) Duel() *protocol.Duel {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.duel.Copy()
}

func (c *Coordinator) DuelStatus() protocol.DuelStatus {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.duelStatus()
}

func (c *Coordinator) duelStatus() protocol.DuelStatus {
	if c.duel == nil && len(c.invitations) > 0 {
		return protocol.DuelPendingInvite
	}
	return c.duel.Status(c.clock.Now())
}

func (c *Coordinator) Invitations() []protocol.Invitation {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return slices.Clone(c.invitations)
}

func (c *Coordinator) Team() *protocol.Team {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.team.Copy()
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return Snapshot{
		Connection:  c.connection,
		RoomID:      c.roomID,
		Roster:      c.roster.Copy(),
		Duel:        c.duel.Copy(),
		DuelStatus:  c.duelStatus(),
		Invitations: slices.Clone(c.invitations),
		Team:        c.team.Copy(),
	}
}

// localUser is the user id given to Connect, or to JoinRoom when not connected yet.
func (c *Coordinator) localUser() protocol.UserID {
	if c.userID != "" {
		return c.userID
	}
	return c.roomUser
}
