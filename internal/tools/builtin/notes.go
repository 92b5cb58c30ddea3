package builtin

import (
	"context"
	"fmt"
	"strings"

	"brainbox/internal/tools"
)

// SaveNoteArgs defines the parameters for the save_note tool.
type SaveNoteArgs struct {
	Content string `json:"content" jsonschema:"description=The note text,required"`
}

// SaveNoteTool stores a free-form note.
type SaveNoteTool struct {
	tools.BaseTool
	store Store
}

// NewSaveNoteTool creates the save_note tool.
func NewSaveNoteTool(store Store) *SaveNoteTool {
	return &SaveNoteTool{
		BaseTool: tools.BaseTool{
			ToolName:        SaveNote,
			ToolDescription: "Save a short note for the user.",
			ToolParameters:  tools.BuildSchema(SaveNoteArgs{}),
		},
		store: store,
	}
}

// Execute saves the note.
func (t *SaveNoteTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	content := tools.StringArg(args, "content")
	if content == "" {
		return tools.ToolResult{}, tools.NewInvalidArgsError(t.Name(), "content is required", nil)
	}
	note, err := t.store.CreateNote(ctx, content)
	if err != nil {
		return tools.ToolResult{}, err
	}
	return tools.NewResultWithMetadata("Note saved", map[string]any{"id": note.ID}), nil
}

// ListNotesArgs defines the parameters for the list_notes tool.
type ListNotesArgs struct {
	Limit int `json:"limit" jsonschema:"description=Maximum number of notes to return,minimum=1"`
}

// ListNotesTool lists saved notes.
type ListNotesTool struct {
	tools.BaseTool
	store Store
}

// NewListNotesTool creates the list_notes tool.
func NewListNotesTool(store Store) *ListNotesTool {
	return &ListNotesTool{
		BaseTool: tools.BaseTool{
			ToolName:        ListNotes,
			ToolDescription: "List the user's saved notes, oldest first.",
			ToolParameters:  tools.BuildSchema(ListNotesArgs{}),
		},
		store: store,
	}
}

// Execute lists notes.
func (t *ListNotesTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	limit, _, err := tools.IntArg(args, "limit")
	if err != nil {
		return tools.ToolResult{}, tools.NewInvalidArgsError(t.Name(), err.Error(), nil)
	}

	notes, err := t.store.ListNotes(ctx, limit)
	if err != nil {
		return tools.ToolResult{}, err
	}
	if len(notes) == 0 {
		return tools.NewSuccessResult("No notes saved."), nil
	}

	var sb strings.Builder
	for i, n := range notes {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, n.Content, n.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tools.NewResultWithMetadata(strings.TrimRight(sb.String(), "\n"), map[string]any{"count": len(notes)}), nil
}
