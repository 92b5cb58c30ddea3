package provider

import (
	"fmt"
	"sort"
	"sync"

	"brainbox/internal/config"
)

// Factory builds a Backend from configuration.
type Factory func(cfg config.BackendConfig) (Backend, error)

var (
	factories = make(map[string]Factory)
	mu        sync.RWMutex
)

// Register registers a backend factory under kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New builds the backend selected by cfg.Kind.
func New(cfg config.BackendConfig) (Backend, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown backend kind %q (registered: %v)", cfg.Kind, List())
	}
	return f(cfg)
}

// List returns the registered backend kinds.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	kinds := make([]string, 0, len(factories))
	for kind := range factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Reset clears all registered factories (for testing).
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	factories = make(map[string]Factory)
}
