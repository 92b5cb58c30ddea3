package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"brainbox/internal/runner"
	"brainbox/pkg/logger"
)

// ChatHandler answers one turn over a client's conversation.
type ChatHandler func(ctx context.Context, history []runner.ChatMessage) runner.TurnResult

// Hub tracks connected clients and broadcasts notifications to them.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu          sync.RWMutex
	chatHandler ChatHandler

	historyLimit atomic.Int64
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
	h.historyLimit.Store(runner.DefaultHistoryWindow)
	return h
}

// SetHistoryLimit sets how many recent messages each connection keeps. It
// should match the orchestrator's history window; older messages would
// never be read. Values below 1 are ignored.
func (h *Hub) SetHistoryLimit(n int) {
	if n > 0 {
		h.historyLimit.Store(int64(n))
	}
}

// SetChatHandler sets the callback for chat messages.
func (h *Hub) SetChatHandler(handler ChatHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chatHandler = handler
}

func (h *Hub) handler() ChatHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.chatHandler
}

// Run is the hub's main loop. It returns when ctx is done, after closing
// every client. Run must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Info().Str("client_id", client.id).Msg("WebSocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()
			logger.Info().Str("client_id", client.id).Msg("WebSocket client disconnected")

		case data := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a client to the hub. A client registered after the hub
// stopped is closed immediately.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.closeSend()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastTyped sends a typed message to all connected clients. It never
// blocks; the message is dropped when the hub is backed up.
func (h *Hub) BroadcastTyped(messageType string, payload any) error {
	msg := WSMessage{Type: messageType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		msg.Data = data
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn().Str("type", messageType).Msg("Broadcast queue full, dropping message")
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
