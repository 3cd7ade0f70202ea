package controllers

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pingInterval = 10 * time.Second
	pongTimeout  = 15 * time.Second
	sendBuffer   = 32
)

// Push is one frame sent to browser tabs.
type Push struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Command is one frame received from a browser tab.
type Command struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId,omitempty"`
}

// wsClient is one open browser tab.
type wsClient struct {
	conn      *websocket.Conn
	send      chan []byte
	id        string
	userID    string
	mu        sync.Mutex
	lastPong  time.Time
	closeOnce sync.Once
}

func (c *wsClient) touch() {
	c.mu.Lock()
	c.lastPong = time.Now()
	c.mu.Unlock()
}

func (c *wsClient) idle() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.lastPong)
}

// WSManager fans state pushes out to every open browser tab.
type WSManager struct {
	clients    map[string]*wsClient
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	done       chan struct{}
	mu         sync.RWMutex
	logger     *slog.Logger

	PingInterval time.Duration
	PongTimeout  time.Duration

	cmdMu     sync.RWMutex
	onCommand func(userID string, cmd Command)
}

func NewWSManager(logger *slog.Logger) *WSManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSManager{
		clients:      make(map[string]*wsClient),
		register:     make(chan *wsClient),
		unregister:   make(chan *wsClient),
		broadcast:    make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		logger:       logger.With("component", "ws"),
		PingInterval: pingInterval,
		PongTimeout:  pongTimeout,
	}
}

// OnCommand sets the handler for commands sent by tabs.
func (m *WSManager) OnCommand(fn func(userID string, cmd Command)) {
	m.cmdMu.Lock()
	m.onCommand = fn
	m.cmdMu.Unlock()
}

// Start runs the registration loop until ctx ends.
func (m *WSManager) Start(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			for id, c := range m.clients {
				c.closeSend()
				c.conn.Close()
				delete(m.clients, id)
			}
			m.mu.Unlock()
			return

		case c := <-m.register:
			m.mu.Lock()
			m.clients[c.id] = c
			m.mu.Unlock()
			m.logger.Debug("tab connected", slog.String("conn", c.id), slog.String("user", c.userID))

		case c := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[c.id]; ok {
				delete(m.clients, c.id)
				c.closeSend()
				m.logger.Debug("tab disconnected", slog.String("conn", c.id))
			}
			m.mu.Unlock()

		case msg := <-m.broadcast:
			m.mu.Lock()
			for id, c := range m.clients {
				select {
				case c.send <- msg:
				default:
					delete(m.clients, id)
					c.closeSend()
					m.logger.Warn("dropping slow tab", slog.String("conn", id))
				}
			}
			m.mu.Unlock()
		}
	}
}

// Broadcast queues a push for every tab. It never blocks the caller; a push
// that finds the queue full is dropped.
func (m *WSManager) Broadcast(kind string, data any) {
	msg, err := json.Marshal(Push{Type: kind, Data: data})
	if err != nil {
		m.logger.Error("marshal push", slog.String("type", kind), slog.Any("error", err))
		return
	}
	select {
	case m.broadcast <- msg:
	default:
		m.logger.Warn("push queue full", slog.String("type", kind))
	}
}

func (m *WSManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Attach registers conn and starts its pumps. initial frames are sent first.
func (m *WSManager) Attach(conn *websocket.Conn, userID string, initial ...Push) {
	c := &wsClient{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		id:       uuid.NewString(),
		userID:   userID,
		lastPong: time.Now(),
	}
	for _, p := range initial {
		if msg, err := json.Marshal(p); err == nil {
			c.send <- msg
		}
	}
	select {
	case m.register <- c:
	case <-m.done:
		conn.Close()
		return
	}
	go m.writePump(c)
	go m.readPump(c)
}

func (m *WSManager) drop(c *wsClient) {
	select {
	case m.unregister <- c:
	case <-m.done:
	}
}

func (m *WSManager) readPump(c *wsClient) {
	defer func() {
		m.drop(c)
		c.conn.Close()
	}()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if string(msg) == "pong" {
			c.touch()
			continue
		}
		var cmd Command
		if err := json.Unmarshal(msg, &cmd); err != nil {
			m.logger.Debug("invalid tab frame", slog.String("conn", c.id))
			continue
		}
		m.cmdMu.RLock()
		fn := m.onCommand
		m.cmdMu.RUnlock()
		if fn != nil {
			fn(c.userID, cmd)
		}
	}
}

func (m *WSManager) writePump(c *wsClient) {
	ticker := time.NewTicker(m.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if c.idle() > m.PongTimeout {
				m.logger.Info("tab timed out", slog.String("conn", c.id))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}
