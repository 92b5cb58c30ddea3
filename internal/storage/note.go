package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Note 笔记实体
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateNote 保存笔记
func (db *DB) CreateNote(ctx context.Context, content string) (*Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("note content cannot be empty")
	}

	note := &Note{
		ID:        uuid.New().String(),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO notes (id, content, created_at) VALUES (?, ?, ?)",
		note.ID, note.Content, note.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return note, nil
}

// ListNotes 按保存顺序列出笔记，limit <= 0 表示不限制
func (db *DB) ListNotes(ctx context.Context, limit int) ([]*Note, error) {
	query := "SELECT id, content, created_at FROM notes ORDER BY rowid"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []*Note{}
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Content, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}
