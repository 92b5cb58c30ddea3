package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// 任务校验错误
var (
	ErrEmptyText       = errors.New("task text cannot be empty")
	ErrInvalidPriority = errors.New("priority must be between 1 and 5")
	ErrInvalidEstimate = errors.New("duration must be greater than 0 minutes")
)

// DefaultPriority 新任务默认优先级（1 最高，5 最低）
const DefaultPriority = 3

// Task 任务实体
type Task struct {
	ID               string    `json:"id"`
	Text             string    `json:"text"`
	Done             bool      `json:"done"`
	Priority         int       `json:"priority"`
	EstimatedMinutes int       `json:"estimated_minutes,omitempty"` // 0 表示未估计
	Category         string    `json:"category,omitempty"`
	Project          string    `json:"project,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewTask 创建任务的输入
type NewTask struct {
	Text             string `json:"text"`
	Priority         int    `json:"priority,omitempty"`
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
	Category         string `json:"category,omitempty"`
	Project          string `json:"project,omitempty"`
}

// TaskUpdate 部分更新，nil 字段保持不变
type TaskUpdate struct {
	Text             *string `json:"text,omitempty"`
	Done             *bool   `json:"done,omitempty"`
	Priority         *int    `json:"priority,omitempty"`
	EstimatedMinutes *int    `json:"estimated_minutes,omitempty"`
	Category         *string `json:"category,omitempty"`
	Project          *string `json:"project,omitempty"`
}

// SnapshotItem 快照中的单个任务投影
type SnapshotItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// TaskSnapshot 某一时刻任务列表的只读投影
type TaskSnapshot struct {
	Count int            `json:"count"`
	Items []SnapshotItem `json:"items"`
}

const taskColumns = "id, text, done, priority, estimated_minutes, category, project, created_at, updated_at"

// CreateTask 创建任务
func (db *DB) CreateTask(ctx context.Context, in NewTask) (*Task, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	priority := in.Priority
	if priority == 0 {
		priority = DefaultPriority
	}
	if priority < 1 || priority > 5 {
		return nil, ErrInvalidPriority
	}
	if in.EstimatedMinutes < 0 {
		return nil, ErrInvalidEstimate
	}

	now := time.Now().UTC()
	task := &Task{
		ID:               uuid.New().String(),
		Text:             text,
		Priority:         priority,
		EstimatedMinutes: in.EstimatedMinutes,
		Category:         in.Category,
		Project:          in.Project,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err := db.ExecContext(ctx,
		"INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, 0, ?, ?, ?, ?, ?, ?)",
		task.ID, task.Text, task.Priority, nullableMinutes(task.EstimatedMinutes),
		task.Category, task.Project, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

// GetTask 获取任务
func (db *DB) GetTask(ctx context.Context, id string) (*Task, error) {
	row := db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return task, err
}

// ListTasks 按创建顺序列出所有任务
func (db *DB) ListTasks(ctx context.Context) ([]*Task, error) {
	return db.queryTasks(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY rowid")
}

// FindTasks 按文本（不区分大小写的子串）查找任务
func (db *DB) FindTasks(ctx context.Context, text string) ([]*Task, error) {
	return db.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE text LIKE '%' || ? || '%' COLLATE NOCASE ORDER BY rowid",
		strings.TrimSpace(text),
	)
}

// UpdateTask 应用部分更新并返回更新后的任务
func (db *DB) UpdateTask(ctx context.Context, id string, upd TaskUpdate) (*Task, error) {
	var sets []string
	var args []any

	if upd.Text != nil {
		text := strings.TrimSpace(*upd.Text)
		if text == "" {
			return nil, ErrEmptyText
		}
		sets, args = append(sets, "text = ?"), append(args, text)
	}
	if upd.Done != nil {
		sets, args = append(sets, "done = ?"), append(args, boolToInt(*upd.Done))
	}
	if upd.Priority != nil {
		if *upd.Priority < 1 || *upd.Priority > 5 {
			return nil, ErrInvalidPriority
		}
		sets, args = append(sets, "priority = ?"), append(args, *upd.Priority)
	}
	if upd.EstimatedMinutes != nil {
		if *upd.EstimatedMinutes <= 0 {
			return nil, ErrInvalidEstimate
		}
		sets, args = append(sets, "estimated_minutes = ?"), append(args, *upd.EstimatedMinutes)
	}
	if upd.Category != nil {
		sets, args = append(sets, "category = ?"), append(args, *upd.Category)
	}
	if upd.Project != nil {
		sets, args = append(sets, "project = ?"), append(args, *upd.Project)
	}
	if len(sets) == 0 {
		return db.GetTask(ctx, id)
	}

	sets, args = append(sets, "updated_at = ?"), append(args, time.Now().UTC())
	args = append(args, id)

	result, err := db.ExecContext(ctx, "UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return db.GetTask(ctx, id)
}

// DeleteTask 删除任务
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Snapshot 返回任务列表的时间点一致视图。
// 计数与条目来自同一事务中的同一条查询，不会出现撕裂。
func (db *DB) Snapshot(ctx context.Context) (TaskSnapshot, error) {
	snap := TaskSnapshot{Items: []SnapshotItem{}}
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT text, done FROM tasks ORDER BY rowid")
		if err != nil {
			return fmt.Errorf("query snapshot: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var item SnapshotItem
			var done int
			if err := rows.Scan(&item.Text, &done); err != nil {
				return err
			}
			item.Done = done != 0
			snap.Items = append(snap.Items, item)
		}
		return rows.Err()
	})
	if err != nil {
		return TaskSnapshot{}, err
	}
	snap.Count = len(snap.Items)
	return snap, nil
}

func (db *DB) queryTasks(ctx context.Context, query string, args ...any) ([]*Task, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*Task, error) {
	var t Task
	var done int
	var minutes sql.NullInt64
	if err := s.Scan(&t.ID, &t.Text, &done, &t.Priority, &minutes, &t.Category, &t.Project, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Done = done != 0
	if minutes.Valid {
		t.EstimatedMinutes = int(minutes.Int64)
	}
	return &t, nil
}

func nullableMinutes(m int) any {
	if m <= 0 {
		return nil
	}
	return m
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
