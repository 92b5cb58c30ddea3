package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultComplexKeywords 触发长超时的关键词（开放式推理类请求）
var DefaultComplexKeywords = []string{"tools", "build", "ideas", "how", "create", "develop"}

// SetDefaults 设置所有配置项的默认值
func SetDefaults() {
	// Backend 配置
	viper.SetDefault("backend.kind", "ollama")
	viper.SetDefault("backend.ollama.endpoint", "http://localhost:11434")
	viper.SetDefault("backend.ollama.model", "llama3.2")
	viper.SetDefault("backend.ollama.timeout", 10*time.Minute)
	viper.SetDefault("backend.ollama.keep_alive", "5m")
	viper.SetDefault("backend.openai.base_url", "http://localhost:8080/v1")
	viper.SetDefault("backend.openai.model", "local-model")
	viper.SetDefault("backend.openai.timeout", 10*time.Minute)

	// Orchestrator 配置
	viper.SetDefault("orchestrator.history_window", 10)
	viper.SetDefault("orchestrator.complex_timeout", 300*time.Second)
	viper.SetDefault("orchestrator.simple_timeout", 120*time.Second)
	viper.SetDefault("orchestrator.complex_keywords", DefaultComplexKeywords)
	viper.SetDefault("orchestrator.complex_length", 100)
	viper.SetDefault("orchestrator.stabilize_delay", 500*time.Millisecond)
	viper.SetDefault("orchestrator.crash_backoff", 1*time.Second)
	viper.SetDefault("orchestrator.cancel_grace", 2*time.Second)
	viper.SetDefault("orchestrator.tiers.essential", []string{"list_tasks", "create_task", "verify_task"})
	viper.SetDefault("orchestrator.tiers.minimal", []string{"create_task"})

	// Gateway 配置
	viper.SetDefault("gateway.port", 18790)
	viper.SetDefault("gateway.host", "127.0.0.1")
	viper.SetDefault("gateway.allowed_origins", []string{"*"})

	// Monitor 配置
	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.schedule", "@every 30s")
	viper.SetDefault("monitor.timeout", 5*time.Second)

	// Log 配置
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.file", "")

	// Storage 配置
	viper.SetDefault("storage.path", "")
}
