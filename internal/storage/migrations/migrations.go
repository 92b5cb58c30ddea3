// Package migrations applies the embedded SQL schema scripts in version order.
package migrations

import (
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

type migration struct {
	version int
	name    string
	content string
}

// Run 执行所有待执行的迁移，已应用的版本会被跳过
func Run(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS _migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return fmt.Errorf("get applied versions: %w", err)
	}

	scripts, err := load()
	if err != nil {
		return fmt.Errorf("load migration scripts: %w", err)
	}

	for _, m := range scripts {
		if applied[m.version] {
			continue
		}
		if err := apply(db, m); err != nil {
			return fmt.Errorf("execute migration %s: %w", m.name, err)
		}
	}
	return nil
}

// Version 返回当前数据库版本
func Version(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM _migrations").Scan(&version)
	return version, err
}

// Latest 返回内嵌脚本中的最高版本号
func Latest() (int, error) {
	scripts, err := load()
	if err != nil {
		return 0, err
	}
	if len(scripts) == 0 {
		return 0, nil
	}
	return scripts[len(scripts)-1].version, nil
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM _migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// load reads scripts named NNN_description.sql, sorted by version.
func load() ([]migration, error) {
	entries, err := fs.ReadDir(FS, "scripts")
	if err != nil {
		return nil, err
	}

	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		prefix, _, _ := strings.Cut(entry.Name(), "_")
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}
		// embed.FS paths always use forward slashes.
		content, err := fs.ReadFile(FS, path.Join("scripts", entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, migration{version: version, name: entry.Name(), content: string(content)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(m.content); err != nil {
		return fmt.Errorf("execute SQL: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO _migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit()
}
