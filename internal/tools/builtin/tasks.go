package builtin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brainbox/internal/storage"
	"brainbox/internal/tools"
)

// ListTasksArgs defines the parameters for the list_tasks tool.
type ListTasksArgs struct {
	Status string `json:"status" jsonschema:"description=Filter by status,enum=all|open|done"`
}

// ListTasksTool lists the user's tasks.
type ListTasksTool struct {
	tools.BaseTool
	store Store
}

// NewListTasksTool creates the list_tasks tool.
func NewListTasksTool(store Store) *ListTasksTool {
	return &ListTasksTool{
		BaseTool: tools.BaseTool{
			ToolName:        ListTasks,
			ToolDescription: "List the tasks in the user's task list with their IDs and status. Call this whenever the user asks about their tasks.",
			ToolParameters:  tools.BuildSchema(ListTasksArgs{}),
		},
		store: store,
	}
}

// Execute lists tasks.
func (t *ListTasksTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	status := tools.StringArg(args, "status")
	switch status {
	case "", "all", "open", "done":
	default:
		return tools.ToolResult{}, tools.NewInvalidArgsError(t.Name(), "status must be all, open or done", nil)
	}

	all, err := t.store.ListTasks(ctx)
	if err != nil {
		return tools.ToolResult{}, err
	}

	var selected []*storage.Task
	for _, task := range all {
		if (status == "open" && task.Done) || (status == "done" && !task.Done) {
			continue
		}
		selected = append(selected, task)
	}

	if len(selected) == 0 {
		return tools.NewResultWithMetadata("The task list is empty.", map[string]any{"count": 0}), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d tasks:\n", len(selected))
	for i, task := range selected {
		sb.WriteString(formatTask(i+1, task))
		sb.WriteByte('\n')
	}
	return tools.NewResultWithMetadata(strings.TrimRight(sb.String(), "\n"), map[string]any{"count": len(selected)}), nil
}

func formatTask(n int, task *storage.Task) string {
	box := "[ ]"
	if task.Done {
		box = "[x]"
	}
	line := fmt.Sprintf("%d. %s %s (id: %s, priority %d", n, box, task.Text, task.ID, task.Priority)
	if task.EstimatedMinutes > 0 {
		line += fmt.Sprintf(", ~%d min", task.EstimatedMinutes)
	}
	if task.Category != "" {
		line += ", category " + task.Category
	}
	if task.Project != "" {
		line += ", project " + task.Project
	}
	return line + ")"
}

// CreateTaskArgs defines the parameters for the create_task tool.
type CreateTaskArgs struct {
	Text             string `json:"text" jsonschema:"description=What needs to be done,required"`
	Priority         int    `json:"priority" jsonschema:"description=Priority from 1 (highest) to 5 (lowest). Default 3,minimum=1,maximum=5"`
	EstimatedMinutes int    `json:"estimated_minutes" jsonschema:"description=Estimated time to complete in minutes,minimum=1"`
	Category         string `json:"category" jsonschema:"description=Category or context of the task"`
	Project          string `json:"project" jsonschema:"description=Project the task belongs to"`
}

// CreateTaskTool adds a task.
type CreateTaskTool struct {
	tools.BaseTool
	store Store
}

// NewCreateTaskTool creates the create_task tool.
func NewCreateTaskTool(store Store) *CreateTaskTool {
	return &CreateTaskTool{
		BaseTool: tools.BaseTool{
			ToolName:        CreateTask,
			ToolDescription: "Add a new task to the user's task list.",
			ToolParameters:  tools.BuildSchema(CreateTaskArgs{}),
		},
		store: store,
	}
}

// Execute creates the task.
func (t *CreateTaskTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	in := storage.NewTask{
		Text:     tools.StringArg(args, "text"),
		Category: tools.StringArg(args, "category"),
		Project:  tools.StringArg(args, "project"),
	}
	if in.Text == "" {
		// Some models use "description" as the field name.
		in.Text = tools.StringArg(args, "description")
	}

	var err error
	if in.Priority, _, err = tools.IntArg(args, "priority"); err != nil {
		return tools.ToolResult{}, tools.NewInvalidArgsError(t.Name(), err.Error(), nil)
	}
	if in.EstimatedMinutes, _, err = tools.IntArg(args, "estimated_minutes"); err != nil {
		return tools.ToolResult{}, tools.NewInvalidArgsError(t.Name(), err.Error(), nil)
	}

	task, err := t.store.CreateTask(ctx, in)
	if err != nil {
		if res, ok := validationResult(err); ok {
			return res, nil
		}
		return tools.ToolResult{}, err
	}
	return tools.NewResultWithMetadata(
		fmt.Sprintf("Task added with ID: %s", task.ID),
		map[string]any{"id": task.ID},
	), nil
}

// VerifyTaskTool checks whether a task exists, so the model can confirm a
// creation actually landed.
type VerifyTaskTool struct {
	tools.BaseTool
	store Store
}

// NewVerifyTaskTool creates the verify_task tool.
func NewVerifyTaskTool(store Store) *VerifyTaskTool {
	return &VerifyTaskTool{
		BaseTool: tools.BaseTool{
			ToolName:        VerifyTask,
			ToolDescription: "Check whether a task exists in the user's list, by ID or by text. Use after create_task to confirm it was saved.",
			ToolParameters:  tools.BuildSchema(taskRefArgs{}),
		},
		store: store,
	}
}

// Execute looks the task up.
func (t *VerifyTaskTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	if id := tools.StringArg(args, "task_id"); id != "" {
		task, err := t.store.GetTask(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return tools.NewResultWithMetadata(fmt.Sprintf("No task found with ID: %s", id), map[string]any{"found": false}), nil
			}
			return tools.ToolResult{}, err
		}
		return tools.NewResultWithMetadata("Found: "+formatTask(1, task), map[string]any{"found": true}), nil
	}

	text := tools.StringArg(args, "text")
	if text == "" {
		return tools.ToolResult{}, tools.NewInvalidArgsError(t.Name(), "task_id or text is required", nil)
	}
	matches, err := t.store.FindTasks(ctx, text)
	if err != nil {
		return tools.ToolResult{}, err
	}
	if len(matches) == 0 {
		return tools.NewResultWithMetadata(fmt.Sprintf("No task found matching %q", text), map[string]any{"found": false}), nil
	}

	lines := make([]string, 0, len(matches))
	for i, task := range matches {
		lines = append(lines, formatTask(i+1, task))
	}
	return tools.NewResultWithMetadata(
		fmt.Sprintf("Found %d matching tasks:\n%s", len(matches), strings.Join(lines, "\n")),
		map[string]any{"found": true, "count": len(matches)},
	), nil
}

// UpdateTaskStatusTool marks a task complete or not complete.
type UpdateTaskStatusTool struct {
	tools.BaseTool
	store Store
}

// NewUpdateTaskStatusTool creates the update_task_status tool.
func NewUpdateTaskStatusTool(store Store) *UpdateTaskStatusTool {
	return &UpdateTaskStatusTool{
		BaseTool: tools.BaseTool{
			ToolName:        UpdateTaskStatus,
			ToolDescription: "Mark a task as complete or not complete.",
			ToolParameters: refSchema(tools.BuildSchema(struct {
				Done bool `json:"done" jsonschema:"description=true when the task is complete,required"`
			}{})),
		},
		store: store,
	}
}

// Execute updates the status.
func (t *UpdateTaskStatusTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	done, ok := tools.BoolArg(args, "done")
	if !ok {
		return tools.ToolResult{}, tools.NewInvalidArgsError(t.Name(), "done must be true or false", nil)
	}

	task, res, err := resolveTask(ctx, t.store, t.Name(), args)
	if err != nil || res != nil {
		return deref(res), err
	}

	if _, err := t.store.UpdateTask(ctx, task.ID, storage.TaskUpdate{Done: &done}); err != nil {
		return tools.ToolResult{}, err
	}
	status := "completed"
	if !done {
		status = "marked as not complete"
	}
	return tools.NewSuccessResult(fmt.Sprintf("Task with ID: %s has been %s", task.ID, status)), nil
}

// DeleteTaskTool removes a task.
type DeleteTaskTool struct {
	tools.BaseTool
	store Store
}

// NewDeleteTaskTool creates the delete_task tool.
func NewDeleteTaskTool(store Store) *DeleteTaskTool {
	return &DeleteTaskTool{
		BaseTool: tools.BaseTool{
			ToolName:        DeleteTask,
			ToolDescription: "Remove a task from the user's task list.",
			ToolParameters:  tools.BuildSchema(taskRefArgs{}),
		},
		store: store,
	}
}

// Execute deletes the task.
func (t *DeleteTaskTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	task, res, err := resolveTask(ctx, t.store, t.Name(), args)
	if err != nil || res != nil {
		return deref(res), err
	}
	if err := t.store.DeleteTask(ctx, task.ID); err != nil {
		return tools.ToolResult{}, err
	}
	return tools.NewSuccessResult(fmt.Sprintf("Task with ID: %s has been removed", task.ID)), nil
}

// UpdateTaskPriorityTool changes a task's priority.
type UpdateTaskPriorityTool struct {
	tools.BaseTool
	store Store
}

// NewUpdateTaskPriorityTool creates the update_task_priority tool.
func NewUpdateTaskPriorityTool(store Store) *UpdateTaskPriorityTool {
	return &UpdateTaskPriorityTool{
		BaseTool: tools.BaseTool{
			ToolName:        UpdateTaskPriority,
			ToolDescription: "Change the priority of a task (1 is highest, 5 is lowest).",
			ToolParameters: refSchema(tools.BuildSchema(struct {
				Priority int `json:"priority" jsonschema:"description=New priority from 1 to 5,required,minimum=1,maximum=5"`
			}{})),
		},
		store: store,
	}
}

// Execute updates the priority.
func (t *UpdateTaskPriorityTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	priority, ok, err := tools.IntArg(args, "priority")
	if err != nil || !ok {
		return tools.ToolResult{}, tools.NewInvalidArgsError(t.Name(), "priority is required and must be a number", err)
	}
	if priority < 1 || priority > 5 {
		return tools.NewErrorResult("Priority must be between 1 and 5"), nil
	}

	task, res, err := resolveTask(ctx, t.store, t.Name(), args)
	if err != nil || res != nil {
		return deref(res), err
	}
	if _, err := t.store.UpdateTask(ctx, task.ID, storage.TaskUpdate{Priority: &priority}); err != nil {
		return tools.ToolResult{}, err
	}
	return tools.NewSuccessResult(fmt.Sprintf("Task with ID: %s has been updated to priority %d", task.ID, priority)), nil
}

// UpdateTaskEstimateTool records how long a task should take.
type UpdateTaskEstimateTool struct {
	tools.BaseTool
	store Store
}

// NewUpdateTaskEstimateTool creates the update_task_estimate tool.
func NewUpdateTaskEstimateTool(store Store) *UpdateTaskEstimateTool {
	return &UpdateTaskEstimateTool{
		BaseTool: tools.BaseTool{
			ToolName:        UpdateTaskEstimate,
			ToolDescription: "Set the estimated time to complete a task, in minutes.",
			ToolParameters: refSchema(tools.BuildSchema(struct {
				EstimatedMinutes int `json:"estimated_minutes" jsonschema:"description=Estimated minutes,required,minimum=1"`
			}{})),
		},
		store: store,
	}
}

// Execute updates the estimate.
func (t *UpdateTaskEstimateTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	minutes, ok, err := tools.IntArg(args, "estimated_minutes")
	if err != nil || !ok {
		return tools.ToolResult{}, tools.NewInvalidArgsError(t.Name(), "estimated_minutes is required and must be a number", err)
	}
	if minutes <= 0 {
		return tools.NewErrorResult("Duration must be greater than 0 minutes"), nil
	}

	task, res, err := resolveTask(ctx, t.store, t.Name(), args)
	if err != nil || res != nil {
		return deref(res), err
	}
	if _, err := t.store.UpdateTask(ctx, task.ID, storage.TaskUpdate{EstimatedMinutes: &minutes}); err != nil {
		return tools.ToolResult{}, err
	}
	return tools.NewSuccessResult(fmt.Sprintf(
		"Task with ID: %s has been updated with estimated duration of %d minutes", task.ID, minutes)), nil
}

// UpdateTaskMetadataTool sets category and project.
type UpdateTaskMetadataTool struct {
	tools.BaseTool
	store Store
}

// NewUpdateTaskMetadataTool creates the update_task_metadata tool.
func NewUpdateTaskMetadataTool(store Store) *UpdateTaskMetadataTool {
	return &UpdateTaskMetadataTool{
		BaseTool: tools.BaseTool{
			ToolName:        UpdateTaskMetadata,
			ToolDescription: "Set the category and/or project of a task.",
			ToolParameters: refSchema(tools.BuildSchema(struct {
				Category string `json:"category" jsonschema:"description=New category"`
				Project  string `json:"project" jsonschema:"description=New project"`
			}{})),
		},
		store: store,
	}
}

// Execute updates the metadata.
func (t *UpdateTaskMetadataTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	var upd storage.TaskUpdate
	var changes []string
	if v, ok := args["category"].(string); ok {
		upd.Category = &v
		changes = append(changes, fmt.Sprintf("category='%s'", v))
	}
	if v, ok := args["project"].(string); ok {
		upd.Project = &v
		changes = append(changes, fmt.Sprintf("project='%s'", v))
	}
	if len(changes) == 0 {
		return tools.NewErrorResult("No changes specified"), nil
	}

	task, res, err := resolveTask(ctx, t.store, t.Name(), args)
	if err != nil || res != nil {
		return deref(res), err
	}
	if _, err := t.store.UpdateTask(ctx, task.ID, upd); err != nil {
		return tools.ToolResult{}, err
	}
	return tools.NewSuccessResult(fmt.Sprintf("Task with ID: %s has been updated with %s", task.ID, strings.Join(changes, ", "))), nil
}

// refSchema adds the task reference fields to an update schema.
func refSchema(schema map[string]any) map[string]any {
	ref := tools.BuildSchema(taskRefArgs{})
	props := schema["properties"].(map[string]any)
	for k, v := range ref["properties"].(map[string]any) {
		props[k] = v
	}
	return schema
}

func deref(res *tools.ToolResult) tools.ToolResult {
	if res == nil {
		return tools.ToolResult{}
	}
	return *res
}
