// Package config loads, watches and persists brainbox configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv 覆盖默认的 ~/.brainbox 目录
const HomeEnv = "BRAINBOX_HOME"

const (
	configFileName = "config.yaml"
	dataFileName   = "data.db"
)

// DefaultConfigDir 返回配置目录：$BRAINBOX_HOME，否则 ~/.brainbox
func DefaultConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return ExpandPath(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".brainbox"), nil
}

// DefaultConfigPath 默认配置文件路径
func DefaultConfigPath() (string, error) { return inConfigDir(configFileName) }

// DefaultDataPath 默认任务数据库路径
func DefaultDataPath() (string, error) { return inConfigDir(dataFileName) }

func inConfigDir(name string) (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ExpandPath 展开环境变量和开头的 ~。
// 只处理 "~" 与 "~/..."，"~user" 形式原样返回。
func ExpandPath(path string) (string, error) {
	path = os.ExpandEnv(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
