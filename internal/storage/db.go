// Package storage 提供基于 SQLite 的任务与笔记存储
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"brainbox/internal/config"
	"brainbox/internal/storage/migrations"

	_ "modernc.org/sqlite"
)

// ErrNotFound 表示记录不存在
var ErrNotFound = errors.New("not found")

// DB 封装数据库连接
type DB struct {
	*sql.DB
	path string
}

// Open 打开数据库连接并执行迁移
func Open(path string) (*DB, error) {
	expandedPath, err := config.ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expand path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	// 连接级 pragma 通过 DSN 传入，连接池中每个连接都会生效。
	// WAL 允许快照读与写并发进行。
	dsn := "file:" + expandedPath +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{DB: db, path: expandedPath}, nil
}

// Path 返回数据库文件路径
func (db *DB) Path() string {
	return db.path
}

// WithTx 在事务中执行 fn，fn 返回错误时回滚
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// SchemaVersion 返回已应用的迁移版本和程序内嵌的最新版本
func (db *DB) SchemaVersion() (current, latest int, err error) {
	if current, err = migrations.Version(db.DB); err != nil {
		return 0, 0, fmt.Errorf("read schema version: %w", err)
	}
	if latest, err = migrations.Latest(); err != nil {
		return 0, 0, err
	}
	return current, latest, nil
}
