// Package devserver is a relay speaking both transport modes. It routes
// commands between users by room, duel and team and holds no state beyond
// what the routing needs.
package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/six78/arena-cli/internal/transport"
	"github.com/six78/arena-cli/pkg/protocol"
)

const (
	defaultPollTimeout = 25 * time.Second
	maxPollTimeout     = time.Minute
	defaultSessionTTL  = 2 * time.Minute
	shutdownTimeout    = 10 * time.Second
)

type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithToken makes every connection present the token as a bearer credential.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithSessionTTL sets how long a polling session may stay without requests.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.sessionTTL = ttl
	}
}

type Server struct {
	logger     *zap.Logger
	clock      clockwork.Clock
	token      string
	sessionTTL time.Duration

	router   chi.Router
	upgrader websocket.Upgrader
	hub      *hub

	mutex    sync.Mutex
	sessions map[string]*pollingPeer
}

func NewServer(opts []Option) *Server {
	s := &Server{
		sessionTTL: defaultSessionTTL,
		sessions:   make(map[string]*pollingPeer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("devserver")

	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}

	s.hub = newHub(s.logger, s.clock)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get(transport.WebsocketPath, s.handleWebsocket)
	r.Route(transport.PollingPath, func(r chi.Router) {
		r.Post("/", s.handleOpenSession)
		r.Get("/{sessionID}", s.handlePoll)
		r.Post("/{sessionID}", s.handlePush)
		r.Delete("/{sessionID}", s.handleCloseSession)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until the context is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var serveErr error
	wg := conc.NewWaitGroup()
	wg.Go(func() {
		s.logger.Info("listening", zap.String("addr", addr))
		err := server.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
		cancel()
	})
	wg.Go(func() {
		s.Run(ctx)
	})
	wg.Go(func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown error", zap.Error(err))
		}
	})
	wg.Wait()

	s.Close()
	return serveErr
}

// Run expires idle polling sessions until the context is done.
func (s *Server) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.sessionTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.reap()
		}
	}
}

func (s *Server) reap() {
	now := s.clock.Now()

	s.mutex.Lock()
	var expired []*pollingPeer
	for id, session := range s.sessions {
		if session.idle(now) > s.sessionTTL {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mutex.Unlock()

	for _, session := range expired {
		s.logger.Info("polling session expired", zap.String("sessionID", session.ID()))
		s.hub.unregister(session)
		session.Close()
	}
}

// Close disconnects every peer in both modes.
func (s *Server) Close() {
	s.mutex.Lock()
	s.sessions = make(map[string]*pollingPeer)
	s.mutex.Unlock()

	s.hub.closeAll()
}

func (s *Server) authenticate(r *http.Request) (protocol.UserID, error) {
	userID := protocol.UserID(r.Header.Get(transport.HeaderUserID))
	if userID == "" {
		return "", errors.New("missing user id")
	}
	if s.token != "" && transport.ParseBearer(r.Header.Get(transport.HeaderAuthorization)) != s.token {
		return "", errors.New("invalid token")
	}
	return userID, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	users, rooms := s.hub.stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"users":  users,
		"rooms":  rooms,
	})
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authenticate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade error", zap.Error(err))
		return
	}

	p := newWebsocketPeer(uuid.New().String(), userID, conn, s.hub, s.logger)
	s.hub.register(p)
	go p.writePump()
	go p.readPump()
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authenticate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	session := newPollingPeer(uuid.New().String(), userID, s.clock.Now())

	s.mutex.Lock()
	s.sessions[session.ID()] = session
	s.mutex.Unlock()

	s.hub.register(session)
	writeJSON(w, http.StatusOK, transport.PollSession{SessionID: session.ID()})
}

func (s *Server) session(r *http.Request) (*pollingPeer, bool) {
	id := chi.URLParam(r, "sessionID")

	s.mutex.Lock()
	defer s.mutex.Unlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(r)
	if !ok {
		w.WriteHeader(http.StatusGone)
		return
	}

	timeout := defaultPollTimeout
	if value := r.URL.Query().Get("timeout"); value != "" {
		milliseconds, err := strconv.Atoi(value)
		if err != nil || milliseconds < 0 {
			http.Error(w, "invalid timeout", http.StatusBadRequest)
			return
		}
		timeout = min(time.Duration(milliseconds)*time.Millisecond, maxPollTimeout)
	}

	session.touch(s.clock.Now())
	if session.pending() == 0 {
		timer := s.clock.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-session.notify:
		case <-session.done:
			w.WriteHeader(http.StatusGone)
			return
		case <-timer.Chan():
		case <-r.Context().Done():
			return
		}
	}

	writeJSON(w, http.StatusOK, session.take(s.clock.Now()))
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(r)
	if !ok {
		w.WriteHeader(http.StatusGone)
		return
	}

	var envelope protocol.Envelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil || envelope.Event == "" {
		http.Error(w, "invalid envelope", http.StatusBadRequest)
		return
	}

	session.touch(s.clock.Now())
	s.hub.handle(session.UserID(), &envelope)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(r)
	if !ok {
		w.WriteHeader(http.StatusGone)
		return
	}

	s.mutex.Lock()
	delete(s.sessions, session.ID())
	s.mutex.Unlock()

	s.hub.unregister(session)
	session.Close()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
