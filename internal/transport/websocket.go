package transport

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/pkg/errors"

	"github.com/six78/arena-cli/pkg/protocol"
)

const maxMessageSize = 1 << 20

type websocketLink struct {
	conn *websocket.Conn
}

func DialWebsocket(ctx context.Context, endpoint string, header http.Header) (Link, error) {
	conn, _, err := websocket.Dial(ctx, joinURL(endpoint, WebsocketPath), &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial websocket")
	}
	conn.SetReadLimit(maxMessageSize)
	return &websocketLink{conn: conn}, nil
}

func (l *websocketLink) Read(ctx context.Context) (*protocol.Envelope, error) {
	var envelope protocol.Envelope
	err := wsjson.Read(ctx, l.conn, &envelope)
	if err != nil {
		if websocket.CloseStatus(err) != -1 {
			return nil, errors.Wrap(ErrClosed, err.Error())
		}
		return nil, errors.Wrap(err, "failed to read message")
	}
	return &envelope, nil
}

func (l *websocketLink) Write(ctx context.Context, envelope *protocol.Envelope) error {
	return wsjson.Write(ctx, l.conn, envelope)
}

func (l *websocketLink) Close() error {
	return l.conn.Close(websocket.StatusNormalClosure, "")
}

func (l *websocketLink) Mode() Mode {
	return ModeWebsocket
}
