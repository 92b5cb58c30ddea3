// Package provider defines the backend session interface and types.
package provider

import (
	"context"
	"encoding/json"
)

// Backend creates conversation sessions against a language-model service.
type Backend interface {
	// Name returns the backend name.
	Name() string

	// NewSession opens a session configured with the given instructions and tools.
	// A session must not be shared between turns or attempts.
	NewSession(ctx context.Context, cfg SessionConfig) (Session, error)
}

// Session is a single-use conversation handle. Calls on one session are
// serialized; after Close every call returns ErrSessionClosed.
type Session interface {
	// Prewarm asks the backend to load the model ahead of the first request.
	Prewarm(ctx context.Context) error

	// Respond sends the prompt and returns the final assistant text. Tool
	// calls requested by the model are executed through SessionConfig.Invoke
	// before the final answer is produced.
	Respond(ctx context.Context, prompt Prompt) (string, error)

	// Close releases the session.
	Close() error
}

// ToolInvoker executes a tool call on behalf of the model and returns its output.
type ToolInvoker func(ctx context.Context, name string, args json.RawMessage) (string, error)

// SessionConfig configures a new session.
type SessionConfig struct {
	Instructions string
	Tools        []Tool
	Invoke       ToolInvoker
	// MaxToolRounds bounds the tool loop; zero means DefaultMaxToolRounds.
	MaxToolRounds int
}

// Prompt is one request: prior transcript plus the latest user text.
type Prompt struct {
	History []Message
	Text    string
}

// Messages flattens instructions, history and the prompt text into a request.
func (p Prompt) Messages(instructions string) []Message {
	msgs := make([]Message, 0, len(p.History)+2)
	if instructions != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: instructions})
	}
	msgs = append(msgs, p.History...)
	return append(msgs, Message{Role: RoleUser, Content: p.Text})
}
