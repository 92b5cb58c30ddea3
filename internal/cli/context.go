package cli

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"brainbox/internal/config"
	"brainbox/internal/provider"
	"brainbox/internal/provider/ollama"
	"brainbox/internal/provider/openai"
	"brainbox/internal/storage"
	"brainbox/pkg/logger"
)

var errCLIContext = errors.New("CLI context not initialized")

var registerBackendsOnce sync.Once

// CLIContext CLI 上下文
type CLIContext struct {
	Config      *config.Config
	ConfigPath  string
	Logger      *zerolog.Logger
	StoragePath string
	Verbose     bool
	Quiet       bool

	storageOnce sync.Once
	storage     *storage.DB
	storageErr  error
}

// NewCLIContext 创建 CLI 上下文
func NewCLIContext(cfg *config.Config, configPath string, log *zerolog.Logger, storagePath string, verbose, quiet bool) *CLIContext {
	return &CLIContext{
		Config:      cfg,
		ConfigPath:  configPath,
		Logger:      log,
		StoragePath: storagePath,
		Verbose:     verbose,
		Quiet:       quiet,
	}
}

// GetStorage 获取存储连接（懒加载）
func (c *CLIContext) GetStorage() (*storage.DB, error) {
	c.storageOnce.Do(func() {
		c.storage, c.storageErr = storage.Open(c.StoragePath)
	})
	return c.storage, c.storageErr
}

// NewBackend 按配置构建模型后端
func (c *CLIContext) NewBackend() (provider.Backend, error) {
	registerBackendsOnce.Do(func() {
		ollama.Register()
		openai.Register()
	})
	backend, err := provider.New(c.Config.Backend)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	return backend, nil
}

// Close 关闭资源
func (c *CLIContext) Close() error {
	if c.storage != nil {
		return c.storage.Close()
	}
	return nil
}

// Log 获取 Logger
func (c *CLIContext) Log() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.Get()
}

// gatewayURL 返回本地网关地址
func (c *CLIContext) gatewayURL() string {
	host := c.Config.Gateway.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := c.Config.Gateway.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}
