package session

import (
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/six78/arena-cli/internal/transport"
	"github.com/six78/arena-cli/pkg/eventbus"
)

type Option func(*Coordinator)

func WithTransport(t transport.Service) Option {
	return func(c *Coordinator) {
		c.transport = t
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

func WithBus(bus *eventbus.Bus) Option {
	return func(c *Coordinator) {
		c.bus = bus
	}
}

func WithDiffLogging(enabled bool) Option {
	return func(c *Coordinator) {
		c.config.DiffLoggingEnabled = enabled
	}
}

func WithInvitationsLimit(limit int) Option {
	return func(c *Coordinator) {
		c.config.InvitationsLimit = limit
	}
}
