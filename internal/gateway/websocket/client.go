package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"brainbox/internal/runner"
	"brainbox/pkg/logger"
)

// Connection timing. pingPeriod must stay below pongWait. A chat frame
// carries one user message, so 64 KiB is generous.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local-only service
	},
}

// Client is one WebSocket connection and its conversation.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	history []runner.ChatMessage
	seq     int64
	busy    bool
	closed  bool
}

// NewClient creates a new client.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		id:     uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// readPump dispatches inbound frames until the peer goes away. Leaving it
// cancels any turn in flight.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error().Err(err).Str("client_id", c.id).Msg("WebSocket read error")
			}
			break
		}
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(message []byte) {
	var msg WSMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.sendError(CodeInvalidMessage, "failed to parse message")
		return
	}

	switch msg.Type {
	case TypePing:
		c.sendJSON(WSMessage{Type: TypePong})

	case TypeReset:
		c.mu.Lock()
		c.history = nil
		c.mu.Unlock()

	case TypeChat:
		if strings.TrimSpace(msg.Message) == "" {
			c.sendError(CodeInvalidRequest, "chat message is required")
			return
		}
		handler := c.hub.handler()
		if handler == nil {
			c.sendError(CodeChatError, "chat handler not configured")
			return
		}
		history, ok := c.beginTurn(msg.Message)
		if !ok {
			c.sendError(CodeBusy, "a reply is still being prepared")
			return
		}
		go c.runTurn(handler, history)

	default:
		logger.Debug().
			Str("client_id", c.id).
			Str("type", msg.Type).
			Msg("Unknown message type")
	}
}

// beginTurn appends the user message and marks the client busy. Turns on one
// connection never overlap. The returned slice is a copy for the handler.
func (c *Client) beginTurn(text string) ([]runner.ChatMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return nil, false
	}
	c.busy = true
	c.seq++
	c.history = append(c.history, runner.ChatMessage{Role: runner.RoleUser, Text: text, Sequence: c.seq})
	return append([]runner.ChatMessage(nil), c.history...), true
}

func (c *Client) runTurn(handler ChatHandler, history []runner.ChatMessage) {
	result := handler(c.ctx, history)

	c.mu.Lock()
	c.busy = false
	if result.OK() {
		c.seq++
		c.history = append(c.history, runner.ChatMessage{Role: runner.RoleAssistant, Text: result.Text, Sequence: c.seq})
	} else {
		c.dropPendingUser()
	}
	c.history = trimHistory(c.history, int(c.hub.historyLimit.Load()))
	c.mu.Unlock()

	if c.ctx.Err() != nil {
		return
	}
	if result.OK() {
		c.sendJSON(WSMessage{Type: TypeReply, Text: result.Text})
		return
	}
	c.sendJSON(WSMessage{Type: TypeError, Kind: string(result.Kind), Code: CodeChatError, Message: result.Message})
}

// dropPendingUser removes the unanswered user message left by a failed turn,
// so the next turn does not carry two user messages in a row. A reset
// during the turn may already have removed it. Caller holds c.mu.
func (c *Client) dropPendingUser() {
	n := len(c.history)
	if n > 0 && c.history[n-1].Role == runner.RoleUser && c.history[n-1].Sequence == c.seq {
		c.history = c.history[:n-1]
		c.seq--
	}
}

// trimHistory keeps the last limit messages in a fresh slice so the dropped
// prefix can be collected.
func trimHistory(history []runner.ChatMessage, limit int) []runner.ChatMessage {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return append([]runner.ChatMessage(nil), history[len(history)-limit:]...)
}

// writePump is the only writer on conn. It drains send and keeps the peer
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error().Err(err).Str("client_id", c.id).Msg("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeSend closes the send queue once, which makes writePump close the
// connection.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// sendJSON queues msg unless the client is closed or its buffer is full.
func (c *Client) sendJSON(msg WSMessage) {
	data, _ := json.Marshal(msg)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		logger.Warn().Str("client_id", c.id).Str("type", msg.Type).Msg("WebSocket send buffer full, dropping frame")
	}
}

func (c *Client) sendError(code, message string) {
	c.sendJSON(WSMessage{Type: TypeError, Code: code, Message: message})
}

// ServeWs upgrades the request and starts the connection's pumps.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(hub, conn)
	hub.Register(client)

	go client.writePump()
	go client.readPump()
}
