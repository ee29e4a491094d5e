package devserver

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/six78/arena-cli/pkg/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendQueueSize  = 256
)

type websocketPeer struct {
	id     string
	userID protocol.UserID
	ws     *websocket.Conn
	hub    *hub
	logger *zap.Logger

	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

func newWebsocketPeer(id string, userID protocol.UserID, ws *websocket.Conn, h *hub, logger *zap.Logger) *websocketPeer {
	return &websocketPeer{
		id:     id,
		userID: userID,
		ws:     ws,
		hub:    h,
		logger: logger.With(zap.String("peerID", id)),
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

func (p *websocketPeer) ID() string                { return p.id }
func (p *websocketPeer) UserID() protocol.UserID { return p.userID }

func (p *websocketPeer) Deliver(envelope *protocol.Envelope) bool {
	data, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Error("failed to marshal envelope", zap.Error(err))
		return true
	}
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.send <- data:
		return true
	default:
		return false
	}
}

func (p *websocketPeer) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		_ = p.ws.Close()
	})
}

func (p *websocketPeer) readPump() {
	defer func() {
		p.hub.unregister(p)
		p.Close()
	}()

	p.ws.SetReadLimit(maxMessageSize)
	_ = p.ws.SetReadDeadline(time.Now().Add(pongWait))
	p.ws.SetPongHandler(func(string) error {
		return p.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				p.logger.Warn("read error", zap.Error(err))
			}
			return
		}

		envelope, err := protocol.UnmarshalEnvelope(data)
		if err != nil {
			p.logger.Warn("invalid envelope", zap.Error(err))
			continue
		}
		p.hub.handle(p.userID, envelope)
	}
}

func (p *websocketPeer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.Close()
	}()

	for {
		select {
		case <-p.done:
			return
		case data := <-p.send:
			_ = p.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				p.logger.Debug("write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = p.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
