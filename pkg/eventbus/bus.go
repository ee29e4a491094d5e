// Package eventbus fans application-level notifications out to any number of
// in-process consumers.
//
// Handlers are called synchronously, in registration order, on the goroutine
// that publishes. A panicking handler is recovered and logged, the remaining
// handlers still receive the event and Publish returns normally.
//
// Subscribe returns a Subscription token. Unsubscribe removes exactly the
// registration the token refers to, so registering the same function twice
// yields two independent subscriptions.
package eventbus

import (
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

type Topic string

const (
	TopicConnecting         Topic = "connecting"
	TopicConnected          Topic = "connected"
	TopicDisconnected       Topic = "disconnected"
	TopicRosterChanged      Topic = "roster.changed"
	TopicRoomUpdate         Topic = "room.update"
	TopicInvitationsChanged Topic = "invitations.changed"
	TopicDuelInvited        Topic = "duel.invited"
	TopicDuelStarted        Topic = "duel.started"
	TopicDuelUpdated        Topic = "duel.updated"
	TopicDuelEnded          Topic = "duel.ended"
	TopicTeamUpdated        Topic = "team.updated"
	TopicMissionUpdated     Topic = "mission.updated"
)

type Event struct {
	Topic Topic
	Data  any
}

type Handler func(Event)

type Subscription struct {
	id    uint64
	topic Topic
}

func (s Subscription) Topic() Topic {
	return s.topic
}

func (s Subscription) Valid() bool {
	return s.id != 0
}

type subscriber struct {
	id      uint64
	handler Handler
}

type Bus struct {
	logger *zap.Logger

	mutex       sync.RWMutex
	subscribers map[Topic][]subscriber
	lastID      uint64
	closed      bool
}

func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		logger:      logger.Named("bus"),
		subscribers: make(map[Topic][]subscriber),
	}
}

func (b *Bus) Subscribe(topic Topic, handler Handler) Subscription {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.closed || handler == nil {
		return Subscription{}
	}

	b.lastID++
	b.subscribers[topic] = append(b.subscribers[topic], subscriber{
		id:      b.lastID,
		handler: handler,
	})

	return Subscription{id: b.lastID, topic: topic}
}

// Unsubscribe returns false when the subscription is not registered.
func (b *Bus) Unsubscribe(sub Subscription) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	subs := b.subscribers[sub.topic]
	for i, s := range subs {
		if s.id != sub.id {
			continue
		}
		// Copy instead of re-slicing in place: Publish may be iterating a previous snapshot
		updated := make([]subscriber, 0, len(subs)-1)
		updated = append(updated, subs[:i]...)
		updated = append(updated, subs[i+1:]...)
		if len(updated) == 0 {
			delete(b.subscribers, sub.topic)
		} else {
			b.subscribers[sub.topic] = updated
		}
		return true
	}

	return false
}

func (b *Bus) Publish(topic Topic, data any) {
	b.mutex.RLock()
	subs := b.subscribers[topic]
	b.mutex.RUnlock()

	if len(subs) == 0 {
		return
	}

	event := Event{Topic: topic, Data: data}
	for _, sub := range subs {
		b.safeCall(sub.handler, event)
	}
}

func (b *Bus) safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", string(event.Topic)),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	handler(event)
}

func (b *Bus) Count() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	count := 0
	for _, subs := range b.subscribers {
		count += len(subs)
	}
	return count
}

// Close drops every subscription. Subscribe is a no-op afterwards.
func (b *Bus) Close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.subscribers = make(map[Topic][]subscriber)
	b.closed = true
}
