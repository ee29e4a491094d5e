package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/six78/arena-cli/pkg/protocol"
)

const closeTimeout = 2 * time.Second

// PollSession is returned by the server when a polling session is opened.
type PollSession struct {
	SessionID string `json:"sessionId"`
}

type pollingLink struct {
	client   *http.Client
	endpoint string
	header   http.Header
	timeout  time.Duration

	pending []*protocol.Envelope

	closeOnce sync.Once
	closed    chan struct{}
}

// PollingDialer returns a Dialer for the long-polling mode.
// Every poll request waits at most timeout for new envelopes.
func PollingDialer(client *http.Client, timeout time.Duration) Dialer {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, endpoint string, header http.Header) (Link, error) {
		return dialPolling(ctx, client, timeout, endpoint, header)
	}
}

func dialPolling(ctx context.Context, client *http.Client, timeout time.Duration, endpoint string, header http.Header) (Link, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, joinURL(endpoint, PollingPath), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	request.Header = header.Clone()

	response, err := client.Do(request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open polling session")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, errors.Errorf("failed to open polling session: %s", response.Status)
	}

	var session PollSession
	if err = json.NewDecoder(response.Body).Decode(&session); err != nil {
		return nil, errors.Wrap(err, "failed to decode polling session")
	}
	if session.SessionID == "" {
		return nil, errors.New("empty polling session id")
	}

	return &pollingLink{
		client:   client,
		endpoint: joinURL(endpoint, PollingPath+"/"+session.SessionID),
		header:   header,
		timeout:  timeout,
		closed:   make(chan struct{}),
	}, nil
}

func (l *pollingLink) Read(ctx context.Context) (*protocol.Envelope, error) {
	for len(l.pending) == 0 {
		select {
		case <-l.closed:
			return nil, ErrClosed
		default:
		}

		envelopes, err := l.poll(ctx)
		if err != nil {
			return nil, err
		}
		l.pending = envelopes
	}

	envelope := l.pending[0]
	l.pending = l.pending[1:]
	return envelope, nil
}

func (l *pollingLink) poll(ctx context.Context) ([]*protocol.Envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout+closeTimeout)
	defer cancel()

	url := fmt.Sprintf("%s?timeout=%d", l.endpoint, l.timeout.Milliseconds())
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	request.Header = l.header.Clone()

	response, err := l.client.Do(request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to poll")
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusOK:
	case http.StatusGone, http.StatusNotFound:
		return nil, ErrClosed
	default:
		return nil, errors.Errorf("failed to poll: %s", response.Status)
	}

	var envelopes []*protocol.Envelope
	if err = json.NewDecoder(response.Body).Decode(&envelopes); err != nil {
		return nil, errors.Wrap(err, "failed to decode poll response")
	}
	return envelopes, nil
}

func (l *pollingLink) Write(ctx context.Context, envelope *protocol.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return errors.Wrap(err, "failed to marshal envelope")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	request.Header = l.header.Clone()
	request.Header.Set("Content-Type", "application/json")

	response, err := l.client.Do(request)
	if err != nil {
		return errors.Wrap(err, "failed to push")
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	switch response.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusAccepted:
		return nil
	case http.StatusGone, http.StatusNotFound:
		return ErrClosed
	default:
		return errors.Errorf("failed to push: %s", response.Status)
	}
}

func (l *pollingLink) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.closed)

		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()

		var request *http.Request
		request, err = http.NewRequestWithContext(ctx, http.MethodDelete, l.endpoint, nil)
		if err != nil {
			return
		}
		request.Header = l.header.Clone()

		var response *http.Response
		response, err = l.client.Do(request)
		if err != nil {
			return
		}
		_ = response.Body.Close()
	})
	return err
}

func (l *pollingLink) Mode() Mode {
	return ModePolling
}
