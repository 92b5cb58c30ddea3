// Package builtin provides the task and note capabilities exposed to the model.
package builtin

import (
	"context"
	"errors"
	"fmt"

	"brainbox/internal/storage"
	"brainbox/internal/tools"
)

// Tool names.
const (
	ListTasks          = "list_tasks"
	CreateTask         = "create_task"
	VerifyTask         = "verify_task"
	UpdateTaskStatus   = "update_task_status"
	DeleteTask         = "delete_task"
	UpdateTaskPriority = "update_task_priority"
	UpdateTaskEstimate = "update_task_estimate"
	UpdateTaskMetadata = "update_task_metadata"
	SaveNote           = "save_note"
	ListNotes          = "list_notes"
)

// Store is the storage the builtin tools read and write.
type Store interface {
	CreateTask(ctx context.Context, in storage.NewTask) (*storage.Task, error)
	GetTask(ctx context.Context, id string) (*storage.Task, error)
	ListTasks(ctx context.Context) ([]*storage.Task, error)
	FindTasks(ctx context.Context, text string) ([]*storage.Task, error)
	UpdateTask(ctx context.Context, id string, upd storage.TaskUpdate) (*storage.Task, error)
	DeleteTask(ctx context.Context, id string) error
	CreateNote(ctx context.Context, content string) (*storage.Note, error)
	ListNotes(ctx context.Context, limit int) ([]*storage.Note, error)
}

// RegisterBuiltins registers all built-in tools to the given registry.
func RegisterBuiltins(r *tools.Registry, store Store) error {
	builtins := []tools.Tool{
		NewListTasksTool(store),
		NewCreateTaskTool(store),
		NewVerifyTaskTool(store),
		NewUpdateTaskStatusTool(store),
		NewDeleteTaskTool(store),
		NewUpdateTaskPriorityTool(store),
		NewUpdateTaskEstimateTool(store),
		NewUpdateTaskMetadataTool(store),
		NewSaveNoteTool(store),
		NewListNotesTool(store),
	}

	for _, tool := range builtins {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistryWithBuiltins creates a new registry with all built-in tools registered.
func NewRegistryWithBuiltins(store Store) (*tools.Registry, error) {
	r := tools.NewRegistry()
	if err := RegisterBuiltins(r, store); err != nil {
		return nil, err
	}
	return r, nil
}

// ToolNames returns the names of all built-in tools.
func ToolNames() []string {
	return []string{
		ListTasks,
		CreateTask,
		VerifyTask,
		UpdateTaskStatus,
		DeleteTask,
		UpdateTaskPriority,
		UpdateTaskEstimate,
		UpdateTaskMetadata,
		SaveNote,
		ListNotes,
	}
}

// taskRefArgs identifies a task by id, or by text when the id is unknown.
type taskRefArgs struct {
	TaskID string `json:"task_id" jsonschema:"description=The task ID as shown by list_tasks"`
	Text   string `json:"text" jsonschema:"description=Task text to match when the ID is unknown"`
}

// resolveTask finds the task an update refers to. A text reference must
// match exactly one task.
func resolveTask(ctx context.Context, store Store, tool string, args map[string]any) (*storage.Task, *tools.ToolResult, error) {
	if id := tools.StringArg(args, "task_id"); id != "" {
		task, err := store.GetTask(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			res := tools.NewErrorResult(fmt.Sprintf("No task found with ID: %s", id))
			return nil, &res, nil
		}
		return task, nil, err
	}

	text := tools.StringArg(args, "text")
	if text == "" {
		return nil, nil, tools.NewInvalidArgsError(tool, "task_id or text is required", nil)
	}

	matches, err := store.FindTasks(ctx, text)
	if err != nil {
		return nil, nil, err
	}
	switch len(matches) {
	case 0:
		res := tools.NewErrorResult(fmt.Sprintf("No task found matching %q", text))
		return nil, &res, nil
	case 1:
		return matches[0], nil, nil
	default:
		res := tools.NewErrorResult(fmt.Sprintf("%d tasks match %q; use task_id instead", len(matches), text))
		return nil, &res, nil
	}
}

// validationResult turns storage validation errors into a tool-visible message.
func validationResult(err error) (tools.ToolResult, bool) {
	switch {
	case errors.Is(err, storage.ErrEmptyText),
		errors.Is(err, storage.ErrInvalidPriority),
		errors.Is(err, storage.ErrInvalidEstimate):
		return tools.NewErrorResult(err.Error()), true
	default:
		return tools.ToolResult{}, false
	}
}
