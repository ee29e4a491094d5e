package transport

import (
	"context"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/six78/arena-cli/pkg/protocol"
)

const inboundBufferSize = 64
const dialTimeout = 10 * time.Second
const writeTimeout = 10 * time.Second

type handlerEntry struct {
	id      uint64
	handler Handler
}

type Client struct {
	logger      *zap.Logger
	clock       clockwork.Clock
	serverURL   string
	primary     Mode
	fallback    bool
	backoff     BackoffConfig
	pollTimeout time.Duration
	httpClient  *http.Client
	clientID    string
	dialers     map[Mode]Dialer

	mutex         sync.Mutex
	handlers      map[protocol.EventName][]handlerEntry
	lastHandlerID uint64
	link          Link
	ctx           context.Context
	cancel        context.CancelFunc
	wg            *conc.WaitGroup
}

func NewClient(opts []Option) *Client {
	c := &Client{
		serverURL:   "",
		primary:     ModeWebsocket,
		fallback:    true,
		backoff:     DefaultBackoff,
		pollTimeout: 25 * time.Second,
		dialers:     make(map[Mode]Dialer),
		handlers:    make(map[protocol.EventName][]handlerEntry),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.Named("transport")

	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}

	if c.clientID == "" {
		c.clientID = uuid.NewString()
	}

	if c.serverURL == "" {
		c.logger.Error("server url is required")
		return nil
	}

	if _, ok := c.dialers[ModeWebsocket]; !ok {
		c.dialers[ModeWebsocket] = DialWebsocket
	}
	if _, ok := c.dialers[ModePolling]; !ok {
		c.dialers[ModePolling] = PollingDialer(c.httpClient, c.pollTimeout)
	}

	return c
}

func (c *Client) Connect(credentials Credentials) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.cancel != nil {
		c.logger.Debug("already connecting")
		return
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.wg = conc.NewWaitGroup()

	ctx := c.ctx
	wg := c.wg
	wg.Go(func() {
		c.run(ctx, wg, credentials)
	})
}

func (c *Client) Disconnect() {
	c.mutex.Lock()
	cancel := c.cancel
	wg := c.wg
	c.cancel = nil
	c.wg = nil
	c.mutex.Unlock()

	if cancel != nil {
		cancel()
		wg.Wait()
		c.logger.Info("disconnected")
	}

	c.mutex.Lock()
	c.handlers = make(map[protocol.EventName][]handlerEntry)
	c.mutex.Unlock()
}

func (c *Client) Send(event protocol.EventName, payload any) error {
	c.mutex.Lock()
	link := c.link
	ctx := c.ctx
	c.mutex.Unlock()

	if link == nil {
		return ErrNotConnected
	}

	envelope, err := protocol.NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	err = link.Write(ctx, envelope)
	if err != nil {
		return errors.Wrapf(err, "failed to send '%s'", event)
	}

	c.logger.Debug("message sent", zap.String("event", event.String()))
	return nil
}

func (c *Client) Subscribe(event protocol.EventName, handler Handler) Unsubscribe {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.lastHandlerID++
	id := c.lastHandlerID
	c.handlers[event] = append(c.handlers[event], handlerEntry{id: id, handler: handler})

	return func() {
		c.unsubscribe(event, id)
	}
}

func (c *Client) unsubscribe(event protocol.EventName, id uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entries := c.handlers[event]
	for i, entry := range entries {
		if entry.id != id {
			continue
		}
		updated := make([]handlerEntry, 0, len(entries)-1)
		updated = append(updated, entries[:i]...)
		updated = append(updated, entries[i+1:]...)
		c.handlers[event] = updated
		return
	}
}

func (c *Client) Connected() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.link != nil
}

func (c *Client) Mode() Mode {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.link == nil {
		return ModeNone
	}
	return c.link.Mode()
}

func (c *Client) run(ctx context.Context, wg *conc.WaitGroup, credentials Credentials) {
	defer c.release(ctx)

	schedule := c.newBackoff()
	header := credentialsHeader(credentials, c.clientID)

	for {
		c.dispatch(ctx, &protocol.Envelope{Event: protocol.EventConnecting})

		link, err := c.dial(ctx, header)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("connection failed", zap.Error(err))
			c.dispatch(ctx, &protocol.Envelope{Event: protocol.EventDisconnect})
			if !c.wait(ctx, schedule) {
				return
			}
			continue
		}

		schedule.Reset()
		c.setLink(link)
		c.logger.Info("connected", zap.String("mode", string(link.Mode())))
		c.dispatch(ctx, &protocol.Envelope{Event: protocol.EventConnect})

		err = c.serve(ctx, wg, link)

		c.setLink(nil)
		_ = link.Close()

		if ctx.Err() != nil {
			return
		}

		c.logger.Warn("connection lost", zap.Error(err))
		c.dispatch(ctx, &protocol.Envelope{Event: protocol.EventDisconnect})
		if !c.wait(ctx, schedule) {
			return
		}
	}
}

func (c *Client) dial(ctx context.Context, header http.Header) (Link, error) {
	modes := []Mode{c.primary}
	if c.fallback && c.primary == ModeWebsocket {
		modes = append(modes, ModePolling)
	}

	var err error
	for _, mode := range modes {
		dialer, ok := c.dialers[mode]
		if !ok {
			err = errors.Errorf("no dialer for mode '%s'", mode)
			continue
		}

		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		var link Link
		link, err = dialer(dialCtx, c.serverURL, header)
		cancel()
		if err == nil {
			return link, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Debug("dial failed", zap.String("mode", string(mode)), zap.Error(err))
	}

	return nil, err
}

// serve reads from the link on a separate goroutine and dispatches inbound
// envelopes on the calling one, until the link fails or ctx is cancelled.
func (c *Client) serve(ctx context.Context, wg *conc.WaitGroup, link Link) error {
	inbound := make(chan *protocol.Envelope, inboundBufferSize)
	failed := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	wg.Go(func() {
		for {
			envelope, err := link.Read(ctx)
			if err != nil {
				failed <- err
				return
			}
			select {
			case inbound <- envelope:
			case <-done:
				return
			}
		}
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-failed:
			return c.drain(ctx, inbound, err)
		case envelope := <-inbound:
			c.handleEnvelope(ctx, envelope)
		}
	}
}

// drain dispatches envelopes that were read before the link failed.
func (c *Client) drain(ctx context.Context, inbound chan *protocol.Envelope, err error) error {
	for {
		select {
		case envelope := <-inbound:
			c.handleEnvelope(ctx, envelope)
		default:
			return err
		}
	}
}

func (c *Client) handleEnvelope(ctx context.Context, envelope *protocol.Envelope) {
	if envelope == nil || envelope.Event == "" {
		c.logger.Warn("message without event name")
		return
	}
	if envelope.Event.Lifecycle() {
		c.logger.Warn("lifecycle event received from server", zap.String("event", envelope.Event.String()))
		return
	}
	c.dispatch(ctx, envelope)
}

func (c *Client) dispatch(ctx context.Context, envelope *protocol.Envelope) {
	if ctx.Err() != nil {
		return
	}

	c.mutex.Lock()
	entries := c.handlers[envelope.Event]
	c.mutex.Unlock()

	c.logger.Debug("dispatching",
		zap.String("event", envelope.Event.String()),
		zap.Int("handlers", len(entries)),
	)

	for _, entry := range entries {
		c.safeCall(entry.handler, envelope)
	}
}

func (c *Client) safeCall(handler Handler, envelope *protocol.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panicked",
				zap.String("event", envelope.Event.String()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	handler(envelope)
}

// release forgets a run loop that stopped on its own, so that Connect can start a new one.
func (c *Client) release(ctx context.Context) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.ctx != ctx || ctx.Err() != nil {
		return
	}
	c.cancel()
	c.cancel = nil
	c.wg = nil
}

func (c *Client) setLink(link Link) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.link = link
}

func (c *Client) newBackoff() *backoff.ExponentialBackOff {
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = c.backoff.InitialInterval
	schedule.MaxInterval = c.backoff.MaxInterval
	schedule.MaxElapsedTime = c.backoff.MaxElapsedTime
	schedule.RandomizationFactor = c.backoff.RandomizationFactor
	schedule.Clock = c.clock
	schedule.Reset()
	return schedule
}

// wait sleeps until the next attempt. Returns false when the client should stop.
func (c *Client) wait(ctx context.Context, schedule backoff.BackOff) bool {
	delay := schedule.NextBackOff()
	if delay == backoff.Stop {
		c.logger.Error("giving up reconnecting")
		return false
	}

	c.logger.Debug("reconnecting", zap.Duration("delay", delay))

	select {
	case <-ctx.Done():
		return false
	case <-c.clock.After(delay):
		return true
	}
}
