package tools

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"

	"brainbox/internal/provider"
)

// Registry holds every capability the process offers. Tiers pick subsets of
// it by name. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds tool. Names are unique.
func (r *Registry) Register(tool Tool) error {
	if tool == nil || tool.Name() == "" {
		return NewInvalidArgsError("registry", "tool must be non-nil and named", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.tools[tool.Name()]; dup {
		return NewToolAlreadyExistsError(tool.Name())
	}
	r.tools[tool.Name()] = tool
	return nil
}

// MustRegister is Register for startup wiring; it panics on error.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all tools ordered by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	out := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Tool) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Resolve returns the named tools in the order given. An unknown or repeated
// name fails the whole lookup, so a misconfigured tier is caught at startup.
func (r *Registry) Resolve(names []string) ([]Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		tool, ok := r.tools[name]
		if !ok {
			return nil, NewToolNotFoundError(name)
		}
		if seen[name] {
			return nil, NewInvalidArgsError("registry", "tool listed twice: "+name, nil)
		}
		seen[name] = true
		out = append(out, tool)
	}
	return out, nil
}

// Execute runs the named tool directly, outside any attempt fence. Turns
// go through an Invoker instead.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (ToolResult, error) {
	tool, ok := r.Get(name)
	if !ok {
		return ToolResult{}, NewToolNotFoundError(name)
	}
	return tool.Execute(ctx, args)
}

// ToProviderTools renders tool definitions in the function-calling shape
// the backends send to the model.
func ToProviderTools(ts []Tool) ([]provider.Tool, error) {
	out := make([]provider.Tool, 0, len(ts))
	for _, tool := range ts {
		params, err := json.Marshal(tool.Parameters())
		if err != nil {
			return nil, NewInvalidArgsError(tool.Name(), "parameters are not valid JSON", err)
		}
		out = append(out, provider.Tool{
			Type: "function",
			Function: provider.ToolFunction{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  params,
			},
		})
	}
	return out, nil
}
