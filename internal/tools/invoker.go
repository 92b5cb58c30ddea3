package tools

import (
	"context"
	"encoding/json"
	"sync"
)

// Invoker executes tool calls for one session, restricted to an allowed set.
// Once closed it refuses every call, so a backend call that outlives its
// attempt cannot change user data.
type Invoker struct {
	allowed map[string]Tool

	mu     sync.RWMutex
	closed bool
}

// NewInvoker creates an invoker limited to ts.
func NewInvoker(ts []Tool) *Invoker {
	allowed := make(map[string]Tool, len(ts))
	for _, t := range ts {
		allowed[t.Name()] = t
	}
	return &Invoker{allowed: allowed}
}

// Invoke decodes args and runs the named tool. It matches provider.ToolInvoker.
func (inv *Invoker) Invoke(ctx context.Context, name string, raw json.RawMessage) (string, error) {
	// The read lock is held for the whole execution so Close waits for an
	// in-flight tool to finish and no tool starts afterwards.
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	if inv.closed {
		return "", NewRefusedCallError(name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tool, ok := inv.allowed[name]
	if !ok {
		return "", NewToolNotFoundError(name)
	}

	args := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return "", NewInvalidArgsError(name, "arguments must be a JSON object", err)
		}
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		return "", err
	}
	return result.String(), nil
}

// Close fences the invoker. It blocks until any in-flight tool returns.
func (inv *Invoker) Close() {
	inv.mu.Lock()
	inv.closed = true
	inv.mu.Unlock()
}
