package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultMaxToolRounds bounds how many tool round-trips one Respond may make.
const DefaultMaxToolRounds = 5

// ChatFunc performs one request/response exchange with a backend.
type ChatFunc func(ctx context.Context, msgs []Message) (*Reply, error)

// BaseSession holds the state shared by every backend session: the
// configuration, the serialization lock and the closed flag.
type BaseSession struct {
	Config SessionConfig

	mu     sync.Mutex
	closed atomic.Bool
}

// NewBaseSession creates the shared session state.
func NewBaseSession(cfg SessionConfig) *BaseSession {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	return &BaseSession{Config: cfg}
}

// Do runs fn while holding the session lock, failing if the session is closed.
func (s *BaseSession) Do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return fn()
}

// Close marks the session closed. It does not wait for an in-flight call;
// that call observes its cancelled context instead.
func (s *BaseSession) Close() error {
	s.closed.Store(true)
	return nil
}

// Closed reports whether Close has been called.
func (s *BaseSession) Closed() bool {
	return s.closed.Load()
}

// RespondWith runs the tool loop: send the conversation, execute any requested
// tools, feed their output back, and repeat until the model answers in text.
func (s *BaseSession) RespondWith(ctx context.Context, prompt Prompt, chat ChatFunc) (string, error) {
	var answer string
	err := s.Do(func() error {
		var err error
		answer, err = RunToolLoop(ctx, s.Config, prompt.Messages(s.Config.Instructions), chat)
		return err
	})
	return answer, err
}

// RunToolLoop drives chat until it returns a response without tool calls.
func RunToolLoop(ctx context.Context, cfg SessionConfig, msgs []Message, chat ChatFunc) (string, error) {
	rounds := cfg.MaxToolRounds
	if rounds <= 0 {
		rounds = DefaultMaxToolRounds
	}

	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := chat(ctx, msgs)
		if err != nil {
			return "", err
		}
		if len(resp.ToolCalls) == 0 {
			return resp.Text, nil
		}
		if round >= rounds {
			return "", fmt.Errorf("tool execution: exceeded %d tool rounds", rounds)
		}
		if cfg.Invoke == nil {
			return "", fmt.Errorf("tool execution: no invoker for %q", resp.ToolCalls[0].Name)
		}

		msgs = append(msgs, Message{
			Role:      RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		for _, tc := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			args := json.RawMessage(tc.Arguments)
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			out, err := cfg.Invoke(ctx, tc.Name, args)
			if err != nil {
				// The model sees tool errors as tool output.
				out = "Error: " + err.Error()
			}
			msgs = append(msgs, Message{
				Role:       RoleTool,
				Content:    out,
				ToolCallID: tc.ID,
			})
		}
	}
}
