package ollama

import (
	"time"

	"brainbox/internal/config"
	"brainbox/internal/provider"
)

// Default configuration values.
const (
	DefaultEndpoint  = "http://localhost:11434"
	DefaultModel     = "llama3.2"
	DefaultTimeout   = 10 * time.Minute
	DefaultKeepAlive = "5m"
)

// Config holds Ollama backend configuration.
type Config struct {
	Endpoint  string
	Model     string
	Timeout   time.Duration
	KeepAlive string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Endpoint:  DefaultEndpoint,
		Model:     DefaultModel,
		Timeout:   DefaultTimeout,
		KeepAlive: DefaultKeepAlive,
	}
}

// FromSettings maps the loaded backend section onto a Config.
func FromSettings(cfg config.OllamaConfig) Config {
	return Config{
		Endpoint:  cfg.Endpoint,
		Model:     cfg.Model,
		Timeout:   cfg.Timeout,
		KeepAlive: cfg.KeepAlive,
	}
}

// Register registers the Ollama backend factory under "ollama".
func Register() {
	provider.Register(Name, func(cfg config.BackendConfig) (provider.Backend, error) {
		return New(FromSettings(cfg.Ollama)), nil
	})
}
