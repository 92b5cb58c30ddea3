package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"brainbox/pkg/logger"
)

const debounceDelay = 200 * time.Millisecond

// Watcher 监听配置文件变化，防抖后重新加载并回调
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func(*Config)
	reload   func() (*Config, error)

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher 创建配置监听器。监听的是文件所在目录，
// 因为很多编辑器保存时会先写临时文件再 rename。
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		path:     filepath.Clean(path),
		onChange: onChange,
		reload:   Reload,
	}, nil
}

// Run 处理文件事件直到 ctx 结束
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("Config watcher error")
		}
	}
}

// schedule 防抖：连续写入只触发一次重新加载
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, w.apply)
}

func (w *Watcher) apply() {
	cfg, err := w.reload()
	if err != nil {
		logger.Warn().Err(err).Str("path", w.path).Msg("Config reload failed, keeping previous settings")
		return
	}
	logger.Info().Str("path", w.path).Msg("Config reloaded")
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
