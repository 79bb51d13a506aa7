package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/quizdash/quizdash/internal/bus"
	"github.com/quizdash/quizdash/internal/events"
)

// The manager is the in-process transport; a NATS hop can be layered on top.
var _ bus.Transport = (*ConnectionManager)(nil)

// CommandHandler consumes inbound client commands. The session coordinator
// implements this.
type CommandHandler interface {
	HandleCommand(connID string, cmd events.Command)
	Disconnect(connID string)
}

// ConnectionManager owns all live WebSocket connections and their room-group
// membership. It implements the transport the coordinator broadcasts through.
type ConnectionManager struct {
	mu sync.RWMutex

	conns  map[string]*Connection
	groups map[string]map[string]*Connection

	upgrader websocket.Upgrader
	config   ConnectionConfig
	handler  CommandHandler

	broadcastCh chan broadcastMessage
}

// Connection represents one WebSocket client.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

type broadcastMessage struct {
	roomCode string
	connID   string
	event    events.Event
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  64 * 1024, // quizzes ride on create_room frames
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		conns:  make(map[string]*Connection),
		groups: make(map[string]map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// SetCommandHandler wires the coordinator in. Must be called before serving
// connections.
func (cm *ConnectionManager) SetCommandHandler(h CommandHandler) {
	cm.handler = h
}

// Start begins processing broadcast messages.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection and
// starts its pumps.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.mu.Lock()
	cm.conns[connection.ID] = connection
	cm.mu.Unlock()

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Msg("WebSocket connection established")

	return connection, nil
}

// Join adds a connection to a room's broadcast group.
func (cm *ConnectionManager) Join(roomCode, connID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	conn, ok := cm.conns[connID]
	if !ok {
		return
	}
	if cm.groups[roomCode] == nil {
		cm.groups[roomCode] = make(map[string]*Connection)
	}
	cm.groups[roomCode][connID] = conn

	log.Debug().
		Str("connection_id", connID).
		Str("room_code", roomCode).
		Int("group_size", len(cm.groups[roomCode])).
		Msg("connection joined room group")
}

// Leave removes a connection from a room's broadcast group.
func (cm *ConnectionManager) Leave(roomCode, connID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.leaveLocked(roomCode, connID)
}

func (cm *ConnectionManager) leaveLocked(roomCode, connID string) {
	group, ok := cm.groups[roomCode]
	if !ok {
		return
	}
	delete(group, connID)
	if len(group) == 0 {
		delete(cm.groups, roomCode)
	}
}

// ToRoom queues an event for every connection in a room's group.
func (cm *ConnectionManager) ToRoom(roomCode string, evt events.Event) {
	select {
	case cm.broadcastCh <- broadcastMessage{roomCode: roomCode, event: evt}:
	default:
		log.Warn().Str("room_code", roomCode).Msg("broadcast channel full, dropping message")
	}
}

// ToConn queues an event for a single connection.
func (cm *ConnectionManager) ToConn(connID string, evt events.Event) {
	select {
	case cm.broadcastCh <- broadcastMessage{connID: connID, event: evt}:
	default:
		log.Warn().Str("connection_id", connID).Msg("broadcast channel full, dropping message")
	}
}

// handleBroadcast delivers one queued event.
func (cm *ConnectionManager) handleBroadcast(message broadcastMessage) {
	cm.mu.RLock()
	var targets []*Connection
	if message.connID != "" {
		if conn, ok := cm.conns[message.connID]; ok {
			targets = append(targets, conn)
		}
	} else {
		for _, conn := range cm.groups[message.roomCode] {
			targets = append(targets, conn)
		}
	}
	cm.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(message.event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("event_type", string(message.event.Type)).
		Str("room_code", message.roomCode).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// unregisterConnection removes a connection from the manager and every group
// it joined, then notifies the coordinator so rooms can react.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	if _, exists := cm.conns[conn.ID]; !exists {
		cm.mu.Unlock()
		return
	}
	delete(cm.conns, conn.ID)
	for roomCode := range cm.groups {
		cm.leaveLocked(roomCode, conn.ID)
	}
	close(conn.Send)
	cm.mu.Unlock()

	log.Info().
		Str("connection_id", conn.ID).
		Msg("connection unregistered")

	if cm.handler != nil {
		cm.handler.Disconnect(conn.ID)
	}
}

// Stats returns statistics about active connections.
func (cm *ConnectionManager) Stats() (totalConns, activeRooms int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.conns), len(cm.groups)
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles reading messages from the WebSocket connection.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage parses a client frame and hands it to the coordinator.
func (c *Connection) handleClientMessage(message []byte) {
	var cmd events.Command
	if err := json.Unmarshal(message, &cmd); err != nil {
		log.Debug().
			Str("connection_id", c.ID).
			Err(err).
			Msg("dropping malformed client frame")
		c.Manager.ToConn(c.ID, events.Event{
			Type: events.TypeError,
			Data: events.ErrorPayload{Message: "malformed message"},
		})
		return
	}

	if c.Manager.handler != nil {
		c.Manager.handler.HandleCommand(c.ID, cmd)
	}
}
