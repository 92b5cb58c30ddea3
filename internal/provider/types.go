package provider

import "encoding/json"

// Transcript roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one transcript entry sent to a backend. Assistant messages may
// carry ToolCalls; tool messages answer one of them through ToolCallID.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a capability invocation requested by the model. Arguments is
// the raw JSON object the model produced.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// Tool advertises one capability to the model, in the function-calling shape
// both Ollama and OpenAI-compatible servers accept.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Reply is the outcome of one backend round-trip: either final text or a
// set of tool calls to execute before asking again.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
}
