package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTask(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task, err := db.CreateTask(ctx, NewTask{Text: "  buy milk  ", Category: "home"})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "buy milk", task.Text)
	assert.Equal(t, DefaultPriority, task.Priority)
	assert.False(t, task.Done)
	assert.Equal(t, "home", task.Category)

	got, err := db.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Text, got.Text)
	assert.Equal(t, task.Priority, got.Priority)
	assert.Zero(t, got.EstimatedMinutes)
}

func TestCreateTask_Validation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   NewTask
		want error
	}{
		{"empty text", NewTask{Text: "   "}, ErrEmptyText},
		{"priority too high", NewTask{Text: "a", Priority: 6}, ErrInvalidPriority},
		{"priority negative", NewTask{Text: "a", Priority: -1}, ErrInvalidPriority},
		{"negative estimate", NewTask{Text: "a", EstimatedMinutes: -5}, ErrInvalidEstimate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.CreateTask(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetTask_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTasks_CreationOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		_, err := db.CreateTask(ctx, NewTask{Text: text})
		require.NoError(t, err)
	}

	tasks, err := db.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "first", tasks[0].Text)
	assert.Equal(t, "third", tasks[2].Text)
}

func TestFindTasks_CaseInsensitive(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.CreateTask(ctx, NewTask{Text: "Call the Dentist"})
	require.NoError(t, err)
	_, err = db.CreateTask(ctx, NewTask{Text: "water plants"})
	require.NoError(t, err)

	found, err := db.FindTasks(ctx, "dentist")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Call the Dentist", found[0].Text)
}

func TestUpdateTask(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task, err := db.CreateTask(ctx, NewTask{Text: "write report"})
	require.NoError(t, err)

	done := true
	priority := 1
	minutes := 45
	project := "q3"
	updated, err := db.UpdateTask(ctx, task.ID, TaskUpdate{
		Done:             &done,
		Priority:         &priority,
		EstimatedMinutes: &minutes,
		Project:          &project,
	})
	require.NoError(t, err)
	assert.True(t, updated.Done)
	assert.Equal(t, 1, updated.Priority)
	assert.Equal(t, 45, updated.EstimatedMinutes)
	assert.Equal(t, "q3", updated.Project)
	assert.Equal(t, "write report", updated.Text)
}

func TestUpdateTask_Validation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task, err := db.CreateTask(ctx, NewTask{Text: "x"})
	require.NoError(t, err)

	zero := 0
	_, err = db.UpdateTask(ctx, task.ID, TaskUpdate{EstimatedMinutes: &zero})
	assert.ErrorIs(t, err, ErrInvalidEstimate)

	bad := 9
	_, err = db.UpdateTask(ctx, task.ID, TaskUpdate{Priority: &bad})
	assert.ErrorIs(t, err, ErrInvalidPriority)

	empty := " "
	_, err = db.UpdateTask(ctx, task.ID, TaskUpdate{Text: &empty})
	assert.ErrorIs(t, err, ErrEmptyText)

	done := true
	_, err = db.UpdateTask(ctx, "missing", TaskUpdate{Done: &done})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTask(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task, err := db.CreateTask(ctx, NewTask{Text: "temp"})
	require.NoError(t, err)

	require.NoError(t, db.DeleteTask(ctx, task.ID))
	assert.ErrorIs(t, db.DeleteTask(ctx, task.ID), ErrNotFound)
}

func TestSnapshot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	snap, err := db.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Count)
	assert.Empty(t, snap.Items)

	a, err := db.CreateTask(ctx, NewTask{Text: "A"})
	require.NoError(t, err)
	_, err = db.CreateTask(ctx, NewTask{Text: "B"})
	require.NoError(t, err)
	done := true
	_, err = db.UpdateTask(ctx, a.ID, TaskUpdate{Done: &done})
	require.NoError(t, err)

	snap, err = db.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Count)
	assert.Equal(t, []SnapshotItem{{Text: "A", Done: true}, {Text: "B"}}, snap.Items)
}

func TestSnapshot_ConcurrentWriters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_, _ = db.CreateTask(ctx, NewTask{Text: fmt.Sprintf("task %d", i)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			snap, err := db.Snapshot(ctx)
			if assert.NoError(t, err) {
				// 计数与条目必须一致
				assert.Equal(t, len(snap.Items), snap.Count)
			}
		}
	}()
	wg.Wait()
}
