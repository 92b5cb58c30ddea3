package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"brainbox/internal/storage"
)

// NewTaskCmd 创建 task 命令组
func NewTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the task list",
		Long:  "Add, list, complete and remove tasks in the local database.",
	}

	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskDoneCmd())
	cmd.AddCommand(newTaskRmCmd())

	return cmd
}

func taskStore(cmd *cobra.Command) (*storage.DB, error) {
	cliCtx, err := mustCLIContext(cmd)
	if err != nil {
		return nil, err
	}
	return cliCtx.GetStorage()
}

func newTaskAddCmd() *cobra.Command {
	var in storage.NewTask

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		Example: `  brainbox task add "Buy milk"
  brainbox task add "Write report" --priority 1 --minutes 90 --project work`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := taskStore(cmd)
			if err != nil {
				return err
			}
			in.Text = strings.Join(args, " ")
			task, err := db.CreateTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s  %s\n", shortID(task.ID), task.Text)
			return nil
		},
	}

	cmd.Flags().IntVarP(&in.Priority, "priority", "p", 0, "priority 1 (highest) to 5")
	cmd.Flags().IntVarP(&in.EstimatedMinutes, "minutes", "m", 0, "estimated duration in minutes")
	cmd.Flags().StringVar(&in.Category, "category", "", "category")
	cmd.Flags().StringVar(&in.Project, "project", "", "project")

	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		jsonOutput bool
		pending    bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := taskStore(cmd)
			if err != nil {
				return err
			}
			tasks, err := db.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			if pending {
				open := tasks[:0]
				for _, t := range tasks {
					if !t.Done {
						open = append(open, t)
					}
				}
				tasks = open
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				data, _ := json.MarshalIndent(tasks, "", "  ")
				fmt.Fprintln(out, string(data))
				return nil
			}
			printTasks(out, tasks)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&pending, "pending", false, "only show tasks that are not done")

	return cmd
}

func newTaskDoneCmd() *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done <id|text>",
		Short: "Mark a task as done",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := taskStore(cmd)
			if err != nil {
				return err
			}
			task, err := findTask(cmd.Context(), db, strings.Join(args, " "))
			if err != nil {
				return err
			}
			done := !undo
			task, err = db.UpdateTask(cmd.Context(), task.ID, storage.TaskUpdate{Done: &done})
			if err != nil {
				return err
			}
			state := "done"
			if undo {
				state = "not done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %q as %s\n", task.Text, state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "mark the task as not done")
	return cmd
}

func newTaskRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id|text>",
		Aliases: []string{"remove"},
		Short:   "Remove a task",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := taskStore(cmd)
			if err != nil {
				return err
			}
			task, err := findTask(cmd.Context(), db, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if err := db.DeleteTask(cmd.Context(), task.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", task.Text)
			return nil
		},
	}
}

// findTask 按完整 ID、ID 前缀或文本子串定位唯一任务
func findTask(ctx context.Context, db *storage.DB, ref string) (*storage.Task, error) {
	task, err := db.GetTask(ctx, ref)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	all, err := db.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	var matches []*storage.Task
	for _, t := range all {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	if len(matches) == 0 {
		if matches, err = db.FindTasks(ctx, ref); err != nil {
			return nil, err
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no task matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%d tasks match %q, use the task ID", len(matches), ref)
	}
}

func printTasks(out io.Writer, tasks []*storage.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tPRI\tEST\tTASK")
	for _, t := range tasks {
		done := " "
		if t.Done {
			done = "x"
		}
		est := "-"
		if t.EstimatedMinutes > 0 {
			est = fmt.Sprintf("%dm", t.EstimatedMinutes)
		}
		fmt.Fprintf(w, "%s\t[%s]\t%d\t%s\t%s\n", shortID(t.ID), done, t.Priority, est, t.Text)
	}
	w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
