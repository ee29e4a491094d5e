package transport

import (
	"github.com/pkg/errors"

	"github.com/six78/arena-cli/pkg/protocol"
)

//go:generate mockgen -source=service.go -destination=mock/service.go

var ErrNotConnected = errors.New("not connected")
var ErrClosed = errors.New("connection closed")

type Mode string

const (
	ModeNone      Mode = ""
	ModeWebsocket Mode = "websocket"
	ModePolling   Mode = "polling"
)

type Credentials struct {
	UserID protocol.UserID
	Token  string
}

// Handler receives inbound envelopes and lifecycle pseudo-events.
// Lifecycle envelopes carry no data.
type Handler func(envelope *protocol.Envelope)

type Unsubscribe func()

type Service interface {
	// Connect starts connecting in the background. Calling it while a
	// connection is running does nothing.
	Connect(credentials Credentials)
	// Disconnect stops the connection, drops every registered handler and
	// discards inbound envelopes not yet dispatched.
	Disconnect()

	Send(event protocol.EventName, payload any) error
	Subscribe(event protocol.EventName, handler Handler) Unsubscribe

	Connected() bool
	Mode() Mode
}
