package runner

import (
	"context"
	"fmt"
	"strings"

	"brainbox/internal/storage"
)

// SnapshotProvider returns a consistent point-in-time view of the task list.
// *storage.DB implements it.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (storage.TaskSnapshot, error)
}

const (
	emptyListAnswer = "I checked your task list and found it's completely empty. You have 0 tasks right now."
	directReadNote  = "\n\n(I read your list directly because the on-device model hit an error. This beta model can be unstable.)"
	maxListedTasks  = 10
)

// CountAnswer reports only the number of tasks.
func CountAnswer(s storage.TaskSnapshot) string {
	return fmt.Sprintf("You have %d items in your list.", s.Count)
}

// ListAnswer renders up to ten tasks, marking finished ones.
func ListAnswer(s storage.TaskSnapshot) string {
	if s.Count == 0 {
		return emptyListAnswer
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d tasks in your list:\n\n", s.Count)
	lines := make([]string, 0, maxListedTasks)
	for i, item := range s.Items {
		if i == maxListedTasks {
			break
		}
		line := fmt.Sprintf("%d. %s", i+1, item.Text)
		if item.Done {
			line += " ✓"
		}
		lines = append(lines, line)
	}
	b.WriteString(strings.Join(lines, "\n"))
	if s.Count > maxListedTasks {
		fmt.Fprintf(&b, "\n\n...and %d more tasks.", s.Count-maxListedTasks)
	}
	return b.String()
}

// CrashAnswer is ListAnswer with a note that the backend failed.
func CrashAnswer(s storage.TaskSnapshot) string {
	return ListAnswer(s) + directReadNote
}
