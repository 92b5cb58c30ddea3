package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 环境变量前缀，例如 BRAINBOX_BACKEND_KIND
const EnvPrefix = "BRAINBOX"

// Config 是应用配置的根结构体
type Config struct {
	Backend      BackendConfig      `mapstructure:"backend" yaml:"backend"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator" yaml:"orchestrator"`
	Gateway      GatewayConfig      `mapstructure:"gateway" yaml:"gateway"`
	Monitor      MonitorConfig      `mapstructure:"monitor" yaml:"monitor"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
	Storage      StorageConfig      `mapstructure:"storage" yaml:"storage"`
}

// BackendConfig 模型后端选择
type BackendConfig struct {
	Kind   string       `mapstructure:"kind" yaml:"kind"` // ollama, openai
	Ollama OllamaConfig `mapstructure:"ollama" yaml:"ollama"`
	OpenAI OpenAIConfig `mapstructure:"openai" yaml:"openai"`
}

// OllamaConfig Ollama 本地 LLM 配置
type OllamaConfig struct {
	Endpoint  string        `mapstructure:"endpoint" yaml:"endpoint"`
	Model     string        `mapstructure:"model" yaml:"model"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	KeepAlive string        `mapstructure:"keep_alive" yaml:"keep_alive"`
}

// OpenAIConfig OpenAI 兼容端点配置（llama.cpp server、LM Studio 等本地服务）
type OpenAIConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string        `mapstructure:"api_key" yaml:"api_key"`
	Model   string        `mapstructure:"model" yaml:"model"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// OrchestratorConfig 对话轮次编排参数
type OrchestratorConfig struct {
	HistoryWindow   int           `mapstructure:"history_window" yaml:"history_window"`
	ComplexTimeout  time.Duration `mapstructure:"complex_timeout" yaml:"complex_timeout"`
	SimpleTimeout   time.Duration `mapstructure:"simple_timeout" yaml:"simple_timeout"`
	ComplexKeywords []string      `mapstructure:"complex_keywords" yaml:"complex_keywords"`
	ComplexLength   int           `mapstructure:"complex_length" yaml:"complex_length"`
	StabilizeDelay  time.Duration `mapstructure:"stabilize_delay" yaml:"stabilize_delay"`
	CrashBackoff    time.Duration `mapstructure:"crash_backoff" yaml:"crash_backoff"`
	CancelGrace     time.Duration `mapstructure:"cancel_grace" yaml:"cancel_grace"`
	Tiers           TiersConfig   `mapstructure:"tiers" yaml:"tiers"`
}

// TiersConfig 每个降级层级可用的工具名
type TiersConfig struct {
	Essential []string `mapstructure:"essential" yaml:"essential"`
	Minimal   []string `mapstructure:"minimal" yaml:"minimal"`
}

// GatewayConfig 网关配置
type GatewayConfig struct {
	Port int    `mapstructure:"port" yaml:"port"`
	Host string `mapstructure:"host" yaml:"host"`
	// 允许跨域访问的来源，空或包含 "*" 表示任意来源
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins,omitempty"`
}

// MonitorConfig 后端健康探测配置
type MonitorConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Schedule string        `mapstructure:"schedule" yaml:"schedule"` // cron 表达式，例如 "@every 30s"
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

var (
	globalConfig *Config
	configPath   string
	mu           sync.RWMutex
)

// Load 加载配置文件
// 优先级: ENV > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	SetDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		expandedPath, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		configPath = expandedPath

		viper.SetConfigFile(expandedPath)
		if err := viper.ReadInConfig(); err != nil {
			// 忽略文件不存在错误
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) && !os.IsNotExist(err) {
				if _, ok := err.(viper.ConfigParseError); ok {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Reload 重新读取当前配置文件，供文件监听回调使用
func Reload() (*Config, error) {
	mu.RLock()
	path := configPath
	mu.RUnlock()
	if path == "" {
		return nil, errors.New("config path not set")
	}
	return Load(path)
}

// GetConfig 获取当前配置
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return globalConfig
}

// Path 返回当前加载的配置文件路径
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return configPath
}

// GetString 获取字符串配置值
func GetString(key string) string {
	return viper.GetString(key)
}

// Set 设置配置值并持久化
func Set(key string, value any) error {
	mu.Lock()
	defer mu.Unlock()

	viper.Set(key, value)
	if configPath != "" {
		return save()
	}
	return nil
}

// save 内部保存函数，调用者需要持有锁
func save() error {
	if configPath == "" {
		return errors.New("config path not set")
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return err
	}
	// 0600: 可能包含 API Key
	return os.WriteFile(configPath, data, 0600)
}

// SaveTo 保存配置到指定路径
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Reset 重置配置（主要用于测试）
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	configPath = ""
	viper.Reset()
}
