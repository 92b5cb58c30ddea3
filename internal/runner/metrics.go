package runner

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "brainbox"

// Metrics records turn outcomes. A nil *Metrics records nothing.
type Metrics struct {
	turns     *prometheus.CounterVec
	attempts  *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics creates the runner metrics and registers them with reg.
// Collectors already registered under the same names are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "turns_total",
				Help:      "Conversation turns by outcome and failure kind",
			},
			[]string{"outcome", "kind"},
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "attempts_total",
				Help:      "Backend attempts by capability tier",
			},
			[]string{"tier"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "fallbacks_total",
				Help:      "Answers synthesized from the task store by reason",
			},
			[]string{"reason"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a conversation turn in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.turns, err = register(reg, m.turns); err != nil {
		return nil, err
	}
	if m.attempts, err = register(reg, m.attempts); err != nil {
		return nil, err
	}
	if m.fallbacks, err = register(reg, m.fallbacks); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observeTurn(r TurnResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !r.OK() {
		outcome = "failure"
	}
	m.turns.WithLabelValues(outcome, string(r.Kind)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeAttempt(tier string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(tier).Inc()
}

func (m *Metrics) observeFallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(reason).Inc()
}
