package transport

import (
	"context"
	"net/http"
	"strings"

	"github.com/six78/arena-cli/pkg/protocol"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderUserID        = "X-User-ID"
	HeaderClientID      = "X-Client-ID"
)

const (
	WebsocketPath = "/ws"
	PollingPath   = "/poll"
)

// Link is a single established connection to the server.
// Read is never called concurrently, Write may be.
type Link interface {
	Read(ctx context.Context) (*protocol.Envelope, error)
	Write(ctx context.Context, envelope *protocol.Envelope) error
	Close() error
	Mode() Mode
}

// Dialer establishes a Link. The endpoint is the server base URL,
// header carries the connection credentials.
type Dialer func(ctx context.Context, endpoint string, header http.Header) (Link, error)

func credentialsHeader(credentials Credentials, clientID string) http.Header {
	header := http.Header{}
	if credentials.Token != "" {
		header.Set(HeaderAuthorization, "Bearer "+credentials.Token)
	}
	header.Set(HeaderUserID, string(credentials.UserID))
	header.Set(HeaderClientID, clientID)
	return header
}

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(value string) string {
	const prefix = "Bearer "
	if len(value) < len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(value[len(prefix):])
}

func joinURL(base string, path string) string {
	return strings.TrimSuffix(base, "/") + path
}
