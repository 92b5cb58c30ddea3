// Package monitor periodically pings the model backend and keeps its state.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"brainbox/internal/config"
	"brainbox/internal/provider"
)

// Defaults.
const (
	DefaultSchedule = "@every 30s"
	DefaultTimeout  = 5 * time.Second
)

// ErrNotSupported is recorded when the backend cannot be pinged.
var ErrNotSupported = errors.New("backend does not support health checks")

// Monitor pings a backend on a cron schedule.
type Monitor struct {
	backend  provider.Backend
	schedule string
	timeout  time.Duration
	logger   zerolog.Logger
	up       prometheus.Gauge

	mu    sync.RWMutex
	state provider.ProviderState
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = *l
		}
	}
}

// WithRegisterer exports a brainbox_backend_up gauge to reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Monitor) {
		if reg == nil {
			return
		}
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "brainbox",
			Name:      "backend_up",
			Help:      "1 when the last backend health check succeeded",
		})
		if err := reg.Register(g); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
					g = existing
				}
			}
		}
		m.up = g
	}
}

// New creates a monitor for backend. An empty schedule or timeout in cfg
// falls back to the defaults.
func New(backend provider.Backend, cfg config.MonitorConfig, opts ...Option) (*Monitor, error) {
	if backend == nil {
		return nil, errors.New("monitor: backend is required")
	}
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid monitor schedule %q: %w", schedule, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	m := &Monitor{
		backend:  backend,
		schedule: schedule,
		timeout:  timeout,
		logger:   zerolog.Nop(),
		state:    provider.ProviderState{Name: backend.Name(), Status: provider.StatusUnknown},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// State returns a copy of the latest backend state.
func (m *Monitor) State() provider.ProviderState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.state
	s.Models = append([]string(nil), m.state.Models...)
	return s
}

// Check pings the backend once and records the result.
func (m *Monitor) Check(ctx context.Context) provider.ProviderState {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	checker, ok := m.backend.(provider.HealthCheckable)
	start := time.Now()
	var err error
	if ok {
		err = checker.Ping(ctx)
	} else {
		err = ErrNotSupported
	}
	latency := time.Since(start)

	var models []string
	if err == nil {
		if lister, ok := m.backend.(provider.ModelLister); ok {
			if ms, lerr := lister.Models(ctx); lerr == nil {
				models = ms
			} else {
				m.logger.Debug().Err(lerr).Msg("list models")
			}
		}
	}

	m.mu.Lock()
	m.state.LastCheck = time.Now()
	switch {
	case err == nil:
		m.state.Status = provider.StatusConnected
		m.state.LastError = ""
		m.state.Latency = latency
		m.state.Failures = 0
		m.state.Models = models
	case errors.Is(err, ErrNotSupported):
		m.state.Status = provider.StatusUnknown
		m.state.LastError = err.Error()
	default:
		m.state.Failures++
		m.state.LastError = err.Error()
		// Transient trouble (down, crashed, rate limited) is expected to clear
		// by itself; anything else needs the user to fix the setup.
		m.state.Status = provider.StatusDisconnected
		if provider.IsRetryable(err) {
			m.state.Status = provider.StatusUnavailable
		}
	}
	state := m.state
	m.mu.Unlock()

	if m.up != nil {
		if state.IsHealthy() {
			m.up.Set(1)
		} else {
			m.up.Set(0)
		}
	}
	if err != nil && !errors.Is(err, ErrNotSupported) {
		m.logger.Warn().Err(err).Int("failures", state.Failures).Msg("backend health check failed")
	} else {
		m.logger.Debug().Str("status", string(state.Status)).Dur("latency", latency).Msg("backend health check")
	}
	return state
}

// Run checks once, then on every tick of the schedule until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	m.Check(ctx)

	c := cron.New(cron.WithLogger(cron.PrintfLogger(&m.logger)))
	if _, err := c.AddFunc(m.schedule, func() { m.Check(ctx) }); err != nil {
		return fmt.Errorf("schedule health check: %w", err)
	}
	c.Start()
	m.logger.Info().Str("schedule", m.schedule).Msg("backend monitor started")

	<-ctx.Done()
	<-c.Stop().Done()
	m.logger.Info().Msg("backend monitor stopped")
	return nil
}
