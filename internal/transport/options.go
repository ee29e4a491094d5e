package transport

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type Option func(*Client)

type BackoffConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	MaxElapsedTime      time.Duration
	RandomizationFactor float64
}

var DefaultBackoff = BackoffConfig{
	InitialInterval:     500 * time.Millisecond,
	MaxInterval:         30 * time.Second,
	MaxElapsedTime:      0,
	RandomizationFactor: 0.5,
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

func WithServerURL(url string) Option {
	return func(c *Client) {
		c.serverURL = url
	}
}

func WithPrimaryMode(mode Mode) Option {
	return func(c *Client) {
		c.primary = mode
	}
}

// WithFallback enables polling when the websocket dial fails.
func WithFallback(enabled bool) Option {
	return func(c *Client) {
		c.fallback = enabled
	}
}

func WithBackoff(config BackoffConfig) Option {
	return func(c *Client) {
		c.backoff = config
	}
}

func WithPollTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.pollTimeout = timeout
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithClientID(id string) Option {
	return func(c *Client) {
		c.clientID = id
	}
}

// WithDialer replaces the dialer used for the given mode.
func WithDialer(mode Mode, dialer Dialer) Option {
	return func(c *Client) {
		c.dialers[mode] = dialer
	}
}
