package devserver

import (
	"sync"
	"time"

	"github.com/six78/arena-cli/pkg/protocol"
)

const maxPendingEnvelopes = 1024

type pollingPeer struct {
	id     string
	userID protocol.UserID

	mutex    sync.Mutex
	queue    []*protocol.Envelope
	lastSeen time.Time
	closed   bool

	notify chan struct{}
	done   chan struct{}
}

func newPollingPeer(id string, userID protocol.UserID, now time.Time) *pollingPeer {
	return &pollingPeer{
		id:       id,
		userID:   userID,
		lastSeen: now,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (p *pollingPeer) ID() string                { return p.id }
func (p *pollingPeer) UserID() protocol.UserID { return p.userID }

func (p *pollingPeer) Deliver(envelope *protocol.Envelope) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed || len(p.queue) >= maxPendingEnvelopes {
		return false
	}
	p.queue = append(p.queue, envelope)

	select {
	case p.notify <- struct{}{}:
	default:
	}
	return true
}

func (p *pollingPeer) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.done)
}

// take returns the queued envelopes, never nil.
func (p *pollingPeer) take(now time.Time) []*protocol.Envelope {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.lastSeen = now
	queue := p.queue
	p.queue = nil
	if queue == nil {
		queue = []*protocol.Envelope{}
	}
	return queue
}

func (p *pollingPeer) touch(now time.Time) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.lastSeen = now
}

func (p *pollingPeer) idle(now time.Time) time.Duration {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return now.Sub(p.lastSeen)
}

func (p *pollingPeer) pending() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.queue)
}
