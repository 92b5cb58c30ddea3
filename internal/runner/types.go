package runner

import "brainbox/internal/provider"

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ChatMessage is one entry of the conversation history supplied by the caller.
type ChatMessage struct {
	Role     Role   `json:"role"`
	Text     string `json:"text"`
	Sequence int64  `json:"sequence"`
}

// FailureKind is the stable failure category surfaced to callers.
type FailureKind string

const (
	FailureTimeout        FailureKind = "timeout"
	FailureCrashExhausted FailureKind = "transient_backend_crash_exhausted"
	FailureUnclassified   FailureKind = "unclassified"
)

// TurnResult is the outcome of one conversation turn: either a success with
// the answer text or a failure with a kind and a displayable message.
type TurnResult struct {
	Text    string      `json:"text,omitempty"`
	Kind    FailureKind `json:"kind,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Success returns a successful result.
func Success(text string) TurnResult {
	return TurnResult{Text: text}
}

// Failure returns a failed result.
func Failure(kind FailureKind, message string) TurnResult {
	return TurnResult{Kind: kind, Message: message}
}

// OK reports whether the turn succeeded.
func (r TurnResult) OK() bool {
	return r.Kind == ""
}

func toProviderRole(r Role) string {
	switch r {
	case RoleAssistant:
		return provider.RoleAssistant
	case RoleSystem:
		return provider.RoleSystem
	default:
		return provider.RoleUser
	}
}
