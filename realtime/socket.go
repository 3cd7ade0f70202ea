// Package realtime owns the single Socket.IO connection of the dashboard.
// Transport, heartbeat and reconnection are the Socket.IO client's own; this
// package adds the one-room bookkeeping and typed subscribe/emit.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/zishang520/socket.io/clients/engine/v3/transports"
	"github.com/zishang520/socket.io/clients/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"
)

var (
	ErrNotConnected = errors.New("realtime: not connected")
	ErrClosed       = errors.New("realtime: socket closed")
)

// Handler receives the first argument of a pushed event.
type Handler func(payload json.RawMessage)

type Socket struct {
	serverURL string
	token     func() string
	logger    *slog.Logger

	// mu guards the client, the room and the connected flag together, so a
	// join either sees the connection or is replayed by the connect handler.
	mu        sync.RWMutex
	io        *socket.Socket
	bound     map[string]bool
	handlers  map[string]map[uint64]Handler
	nextID    uint64
	room      string
	listeners []func(connected bool)
	started   bool
	connected atomic.Bool

	done      chan struct{}
	closeOnce sync.Once
}

type Option func(*Socket)

func WithLogger(l *slog.Logger) Option {
	return func(s *Socket) { s.logger = l }
}

// New prepares a socket for serverURL (http(s) or ws(s)). token is read on
// every Reconnect and sent as the handshake auth.
func New(serverURL string, token func() string, opts ...Option) (*Socket, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("realtime url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("realtime url: unsupported scheme %q", u.Scheme)
	}
	s := &Socket{
		serverURL: serverURL,
		token:     token,
		logger:    slog.Default(),
		handlers:  make(map[string]map[uint64]Handler),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Connected reports the current connectivity.
func (s *Socket) Connected() bool {
	return s.connected.Load()
}

// OnStateChange registers fn to be called on every connect/disconnect transition.
func (s *Socket) OnStateChange(fn func(connected bool)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// On subscribes h to event and returns the matching unsubscribe.
func (s *Socket) On(name string, h Handler) (off func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	if s.handlers[name] == nil {
		s.handlers[name] = make(map[uint64]Handler)
	}
	s.handlers[name][id] = h
	if s.io != nil {
		s.bindLocked(s.io, name)
	}
	return func() {
		s.mu.Lock()
		delete(s.handlers[name], id)
		s.mu.Unlock()
	}
}

// Emit sends one event. It fails fast with ErrNotConnected while offline.
func (s *Socket) Emit(name string, payload any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emitLocked(name, payload)
}

func (s *Socket) emitLocked(name string, payload any) error {
	if s.io == nil || !s.connected.Load() {
		return ErrNotConnected
	}
	return s.io.Emit(name, payload)
}

// Join makes id the one joined conversation room. While offline the room is
// remembered and joined on the next connect.
func (s *Socket) Join(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = conversationID
	if !s.connected.Load() {
		return nil
	}
	return s.emitLocked(EmitJoinConversation, RoomPayload{ConversationID: conversationID})
}

// Leave drops the room if it is the current one.
func (s *Socket) Leave(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == conversationID {
		s.room = ""
	}
	if !s.connected.Load() {
		return nil
	}
	return s.emitLocked(EmitLeaveConversation, RoomPayload{ConversationID: conversationID})
}

// Room returns the currently joined conversation room, or "".
func (s *Socket) Room() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

// Run connects and keeps the client alive until ctx ends or Close is called.
func (s *Socket) Run(ctx context.Context) error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	s.Reconnect()

	select {
	case <-ctx.Done():
		s.teardown()
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// Start runs the connection in the background.
func (s *Socket) Start(ctx context.Context) {
	go func() {
		if err := s.Run(ctx); err != nil && !errors.Is(err, ErrClosed) && !errors.Is(err, context.Canceled) {
			s.logger.Error("realtime loop stopped", slog.Any("error", err))
		}
	}()
}

// Reconnect drops the current client and dials again with the current token,
// e.g. after a login or logout. It is a no-op before Run and after Close.
func (s *Socket) Reconnect() {
	select {
	case <-s.done:
		return
	default:
	}
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	prev, was := s.detachLocked()
	io := s.dial()
	s.io = io
	s.bound = make(map[string]bool)
	for name := range s.handlers {
		s.bindLocked(io, name)
	}
	s.mu.Unlock()

	if prev != nil {
		prev.Disconnect()
	}
	if was {
		s.notify(false)
	}
	io.Connect()
}

// Close tears the connection down for good.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	s.teardown()
	return nil
}

func (s *Socket) teardown() {
	s.mu.Lock()
	prev, was := s.detachLocked()
	s.mu.Unlock()
	if prev != nil {
		prev.Disconnect()
	}
	if was {
		s.notify(false)
	}
}

// detachLocked forgets the current client; its late events are ignored.
func (s *Socket) detachLocked() (prev *socket.Socket, wasConnected bool) {
	prev = s.io
	s.io = nil
	s.bound = nil
	return prev, s.connected.Swap(false)
}

func (s *Socket) dial() *socket.Socket {
	opts := socket.DefaultOptions()
	opts.SetTransports(types.NewSet(transports.WebSocket))
	opts.SetAutoConnect(false)
	if s.token != nil {
		if tok := s.token(); tok != "" {
			opts.SetAuth(map[string]any{"token": tok})
		}
	}
	io := socket.NewManager(s.serverURL, opts).Socket("/", opts)

	io.On("connect", func(...any) { s.onConnect(io) })
	io.On("disconnect", func(args ...any) {
		s.logger.Warn("realtime connection lost", slog.Any("reason", first(args)))
		s.onDisconnect(io)
	})
	io.On("connect_error", func(args ...any) {
		s.logger.Warn("realtime connection refused", slog.Any("error", first(args)))
		s.onDisconnect(io)
	})
	return io
}

// onConnect marks the client online and rejoins the room in one step.
func (s *Socket) onConnect(io *socket.Socket) {
	s.mu.Lock()
	if s.io != io {
		s.mu.Unlock()
		return
	}
	s.connected.Store(true)
	if s.room != "" {
		if err := s.emitLocked(EmitJoinConversation, RoomPayload{ConversationID: s.room}); err != nil {
			s.logger.Warn("rejoin failed", slog.String("room", s.room), slog.Any("error", err))
		}
	}
	s.mu.Unlock()
	s.notify(true)
}

func (s *Socket) onDisconnect(io *socket.Socket) {
	s.mu.Lock()
	if s.io != io {
		s.mu.Unlock()
		return
	}
	was := s.connected.Swap(false)
	s.mu.Unlock()
	if was {
		s.notify(false)
	}
}

func (s *Socket) bindLocked(io *socket.Socket, name string) {
	if s.bound[name] {
		return
	}
	s.bound[name] = true
	io.On(types.EventName(name), func(args ...any) { s.dispatch(name, args) })
}

func (s *Socket) dispatch(name string, args []any) {
	s.mu.RLock()
	hs := make([]Handler, 0, len(s.handlers[name]))
	for _, h := range s.handlers[name] {
		hs = append(hs, h)
	}
	s.mu.RUnlock()

	var payload json.RawMessage
	if len(args) > 0 {
		raw, err := json.Marshal(args[0])
		if err != nil {
			s.logger.Warn("dropping malformed event", slog.String("event", name), slog.Any("error", err))
			return
		}
		payload = raw
	}
	for _, h := range hs {
		h(payload)
	}
}

func (s *Socket) notify(connected bool) {
	s.mu.RLock()
	listeners := append([]func(bool){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(connected)
	}
}

func first(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}
