// Package tools defines the capabilities a backend may call during a turn
// and the registry the attempt tiers are resolved against.
package tools

import (
	"context"
)

// Tool is a capability offered to the model. Execute reports problems the
// model can fix (unknown task, bad priority) as an error ToolResult and keeps
// the error return for failures of the tool itself.
type Tool interface {
	Name() string
	Description() string
	// Parameters is a JSON Schema object.
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) (ToolResult, error)
}

// ToolResult is what the model reads back after a call.
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
	// Metadata is for callers and tests; it is not sent to the model.
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewSuccessResult(content string) ToolResult {
	return ToolResult{Content: content}
}

func NewErrorResult(msg string) ToolResult {
	return ToolResult{Content: msg, IsError: true}
}

func NewResultWithMetadata(content string, metadata map[string]any) ToolResult {
	return ToolResult{Content: content, Metadata: metadata}
}

// String is the tool message text handed back to the backend.
func (r ToolResult) String() string {
	if r.IsError {
		return "Error: " + r.Content
	}
	return r.Content
}

// BaseTool carries the static half of a Tool. Embed it and add Execute.
type BaseTool struct {
	ToolName        string
	ToolDescription string
	ToolParameters  map[string]any
}

func (t *BaseTool) Name() string        { return t.ToolName }
func (t *BaseTool) Description() string { return t.ToolDescription }

// Parameters defaults to an object schema without properties.
func (t *BaseTool) Parameters() map[string]any {
	if t.ToolParameters == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return t.ToolParameters
}
