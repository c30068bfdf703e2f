package server

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"gameroom-server/internal/engine"
)

const (
	sendBufferSize = 64
	writeTimeout   = 10 * time.Second
)

// Client is one websocket connection. Frames queue on send and a single write
// pump drains them, so nothing that enqueues ever waits on the network.
type Client struct {
	ID   string
	Kind string

	conn *websocket.Conn
	send chan ServerMessage

	done      chan struct{}
	closeOnce sync.Once
	status    websocket.StatusCode
	reason    string
}

func newClient(id, kind string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Kind: kind,
		conn: conn,
		send: make(chan ServerMessage, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// enqueue reports false when the buffer is full.
func (c *Client) enqueue(msg ServerMessage) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// kick asks the write pump to close the socket.
func (c *Client) kick(status websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		c.status = status
		c.reason = reason
		close(c.done)
	})
}

// writePump writes queued frames until the client is kicked or ctx ends. A
// kicked client has its socket closed, which also ends the read loop.
func (c *Client) writePump(ctx context.Context) error {
	for {
		select {
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.conn, msg)
			cancel()
			if err != nil {
				return err
			}

		case <-c.done:
			return c.conn.Close(c.status, c.reason)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ConnectionManager maps connection ids to clients. It is the engine's
// Dispatcher.
type ConnectionManager struct {
	clients map[string]*Client // connectionID → client
	logger  zerolog.Logger
	mu      sync.RWMutex
}

func NewConnectionManager(logger zerolog.Logger) *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

func (cm *ConnectionManager) AddConnection(c *Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[c.ID] = c
}

func (cm *ConnectionManager) RemoveConnection(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.clients, id)
}

func (cm *ConnectionManager) GetConnection(id string) *Client {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.clients[id]
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// Send implements engine.Dispatcher. A client whose buffer is full is
// dropped instead of stalling the caller.
func (cm *ConnectionManager) Send(connID string, msg engine.Message) {
	c := cm.GetConnection(connID)
	if c == nil || c.closed() {
		return
	}

	if !c.enqueue(msg) {
		cm.logger.Warn().Str("connection", connID).Str("type", msg.Type).Msg("Send buffer full, dropping connection")
		c.kick(websocket.StatusPolicyViolation, "send buffer full")
	}
}

// Kick closes one connection. It reports whether the connection existed.
func (cm *ConnectionManager) Kick(connID string, status websocket.StatusCode, reason string) bool {
	c := cm.GetConnection(connID)
	if c == nil {
		return false
	}
	c.kick(status, reason)
	return true
}

// CloseAll kicks every client with StatusGoingAway.
func (cm *ConnectionManager) CloseAll(reason string) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	for _, c := range cm.clients {
		c.kick(websocket.StatusGoingAway, reason)
	}
}
