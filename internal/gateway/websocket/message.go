// Package websocket provides the chat WebSocket endpoint and client hub.
package websocket

import "encoding/json"

// WSMessage is the envelope of every frame in both directions.
type WSMessage struct {
	Type string `json:"type"`
	// Message is the user text of a chat frame or the text of an error frame.
	Message string `json:"message,omitempty"`
	// Text is the assistant answer of a reply frame.
	Text string          `json:"text,omitempty"`
	Kind string          `json:"kind,omitempty"`
	Code string          `json:"code,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message types.
const (
	TypeChat         = "chat"
	TypeReply        = "reply"
	TypeReset        = "reset"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeError        = "error"
	TypeTasksChanged = "tasks_changed"
)

// Error codes.
const (
	CodeInvalidMessage = "INVALID_MESSAGE"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeBusy           = "BUSY"
	CodeChatError      = "CHAT_ERROR"
)
