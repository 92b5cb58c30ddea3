package handlers

import (
	"context"
	"net/http"
	"strings"

	"brainbox/internal/runner"
)

// Responder answers a conversation turn. *runner.Runner implements it.
type Responder interface {
	Respond(ctx context.Context, history []runner.ChatMessage) runner.TurnResult
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	UserMessage         string               `json:"user_message"`
	ConversationHistory []runner.ChatMessage `json:"conversation_history,omitempty"`
}

// ChatResponse is the successful reply of POST /chat.
type ChatResponse struct {
	AssistantResponse string `json:"assistant_response"`
}

// ChatHandler runs one turn for the posted message.
func ChatHandler(responder Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body: "+err.Error())
			return
		}
		if strings.TrimSpace(req.UserMessage) == "" {
			SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "user_message is required")
			return
		}

		result := responder.Respond(r.Context(), AppendUserMessage(req.ConversationHistory, req.UserMessage))
		if !result.OK() {
			SendFailure(w, result)
			return
		}
		SendJSON(w, http.StatusOK, ChatResponse{AssistantResponse: result.Text})
	}
}

// AppendUserMessage returns history followed by a user message. Histories
// sent without sequence numbers are numbered in the order given.
func AppendUserMessage(history []runner.ChatMessage, text string) []runner.ChatMessage {
	out := make([]runner.ChatMessage, len(history), len(history)+1)
	copy(out, history)

	numbered := false
	var last int64
	for _, m := range out {
		if m.Sequence != 0 {
			numbered = true
		}
		if m.Sequence > last {
			last = m.Sequence
		}
	}
	if !numbered {
		for i := range out {
			out[i].Sequence = int64(i + 1)
		}
		last = int64(len(out))
	}
	return append(out, runner.ChatMessage{Role: runner.RoleUser, Text: text, Sequence: last + 1})
}

// FailureStatus maps a failure kind to an HTTP status and error code.
func FailureStatus(kind runner.FailureKind) (int, string) {
	switch kind {
	case runner.FailureTimeout:
		return http.StatusGatewayTimeout, ErrCodeGatewayTimeout
	case runner.FailureCrashExhausted:
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable
	default:
		return http.StatusBadGateway, ErrCodeBackendError
	}
}
