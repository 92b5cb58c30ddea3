package provider

import (
	"context"
	"time"
)

// ProviderStatus represents the connection status of a backend
type ProviderStatus string

const (
	StatusUnknown      ProviderStatus = "unknown"
	StatusConnected    ProviderStatus = "connected"
	StatusDisconnected ProviderStatus = "disconnected"
	StatusUnavailable  ProviderStatus = "unavailable"
)

// ProviderState contains status information for a backend
type ProviderState struct {
	Name      string         `json:"name"`
	Status    ProviderStatus `json:"status"`
	LastCheck time.Time      `json:"last_check"`
	LastError string         `json:"last_error,omitempty"`
	Latency   time.Duration  `json:"latency_ns,omitempty"`
	Failures  int            `json:"consecutive_failures,omitempty"`
	Models    []string       `json:"models,omitempty"`
}

// IsHealthy returns true if the backend is in a healthy state
func (s *ProviderState) IsHealthy() bool {
	return s.Status == StatusConnected
}

// HealthCheckable defines the interface for backends that support health checking
type HealthCheckable interface {
	// Ping checks if the backend is available
	Ping(ctx context.Context) error
}

// ModelLister is implemented by backends that can enumerate installed models.
type ModelLister interface {
	Models(ctx context.Context) ([]string, error)
}
