// Package runner drives one conversation turn against an unreliable backend.
// Each turn gets up to three attempts on fresh sessions with a shrinking tool
// set, a deadline per call, and answers synthesized from the task store when
// the backend refuses or crashes on a task question.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"brainbox/internal/prompt"
	"brainbox/internal/provider"
	"brainbox/internal/storage"
	"brainbox/internal/tools"
)

// ErrEmptyResponse is returned when the backend answers with no text.
var ErrEmptyResponse = errors.New("backend returned an empty response")

// User-facing failure messages.
const (
	msgCanceled  = "request canceled before the assistant could answer"
	msgExhausted = "The on-device model kept crashing and could not answer. Please try again in a moment or switch to a different backend in settings."
	msgTimeout   = "The assistant took longer than %g seconds to respond. Please try a shorter request or try again later."
)

// Fallback reasons.
const (
	reasonContentFilter = "content_filter"
	reasonToolRefusal   = "tool_refusal"
	reasonToolCrash     = "tool_execution_crash"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Runner answers conversation turns. It keeps no per-turn state and is safe
// for concurrent use.
type Runner struct {
	backend   provider.Backend
	tiers     *TierSelector
	snapshots SnapshotProvider
	settings  atomic.Pointer[Settings]

	logger  zerolog.Logger
	metrics *Metrics
	sleep   SleepFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the trace logger. A nil logger disables logging.
func WithLogger(l *zerolog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = *l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithSettings sets the initial tunables.
func WithSettings(s Settings) Option {
	return func(r *Runner) { r.settings.Store(&s) }
}

// WithSleep replaces the inter-attempt wait, mainly for tests.
func WithSleep(fn SleepFunc) Option {
	return func(r *Runner) {
		if fn != nil {
			r.sleep = fn
		}
	}
}

// New creates a Runner.
func New(backend provider.Backend, tiers *TierSelector, snapshots SnapshotProvider, opts ...Option) (*Runner, error) {
	if backend == nil {
		return nil, errors.New("runner: backend is required")
	}
	if tiers == nil {
		return nil, errors.New("runner: tier selector is required")
	}
	if snapshots == nil {
		return nil, errors.New("runner: snapshot provider is required")
	}

	r := &Runner{
		backend:   backend,
		tiers:     tiers,
		snapshots: snapshots,
		logger:    zerolog.Nop(),
		sleep:     sleepContext,
	}
	defaults := DefaultSettings()
	r.settings.Store(&defaults)
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Settings returns the current tunables.
func (r *Runner) Settings() Settings {
	return *r.settings.Load()
}

// UpdateSettings replaces the tunables for turns started afterwards.
func (r *Runner) UpdateSettings(s Settings) {
	r.settings.Store(&s)
}

// Respond runs one turn over history. It always returns a TurnResult; errors
// and panics are converted to failures.
func (r *Runner) Respond(ctx context.Context, history []ChatMessage) (result TurnResult) {
	start := time.Now()
	log := r.logger.With().Str("turn_id", uuid.NewString()).Logger()

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("turn panicked")
			result = Failure(FailureUnclassified, fmt.Sprintf("internal error: %v", p))
		}
		r.metrics.observeTurn(result, time.Since(start))
		ev := log.Info()
		if !result.OK() {
			ev = log.Warn().Str("kind", string(result.Kind)).Str("message", result.Message)
		}
		ev.Dur("elapsed", time.Since(start)).Msg("turn finished")
	}()

	settings := *r.settings.Load()
	tc, err := BuildContext(history, settings.HistoryWindow)
	if err != nil {
		return Failure(FailureUnclassified, err.Error())
	}
	deadline := settings.Timeout.Deadline(tc.UserText)
	log.Debug().Str("reason", deadline.Reason).Float64("deadline_s", deadline.Seconds).Msg("turn started")

	for i := 0; i < MaxAttempts; i++ {
		tier := r.tiers.Tier(i)
		r.metrics.observeAttempt(tier.Label)
		alog := log.With().Int("attempt", i).Str("tier", tier.Label).Logger()

		text, err := r.attempt(ctx, alog, i, tier, tc, deadline, settings)
		if err == nil {
			return r.validate(ctx, alog, tc.UserText, text)
		}
		if ctx.Err() != nil {
			return Failure(FailureUnclassified, msgCanceled)
		}

		ce := Classify(err)
		alog.Warn().Str("kind", ce.Kind.String()).Str("diagnostic", ce.Diagnostic).Msg("attempt failed")

		if ce.Kind == KindToolExecutionCrash {
			if hasListIntent(tc.UserText) {
				return r.fallback(ctx, alog, reasonToolCrash, CrashAnswer)
			}
			ce.Kind = KindTransientBackendCrash
		}

		switch ce.Kind {
		case KindTransientBackendCrash:
			if i == MaxAttempts-1 {
				return Failure(FailureCrashExhausted, msgExhausted)
			}
			if err := r.sleep(ctx, settings.CrashBackoff); err != nil {
				return Failure(FailureUnclassified, msgCanceled)
			}
		case KindTimeout:
			return Failure(FailureTimeout, fmt.Sprintf(msgTimeout, deadline.Seconds))
		default:
			return Failure(FailureUnclassified, ce.Diagnostic)
		}
	}
	return Failure(FailureCrashExhausted, msgExhausted)
}

// attempt runs one backend call on a fresh session. Session creation,
// prewarm and the call share one deadline under Race, so a backend that
// ignores cancellation at any step cannot stretch the attempt past
// deadline plus grace. The invoker is fenced when attempt returns, even if
// the raced work is still running.
func (r *Runner) attempt(ctx context.Context, log zerolog.Logger, i int, tier Tier, tc TurnContext, deadline Deadline, s Settings) (string, error) {
	instructions, err := prompt.Build(tc.SystemText, tier.Tools)
	if err != nil {
		return "", fmt.Errorf("build instructions: %w", err)
	}
	specs, err := tools.ToProviderTools(tier.Tools)
	if err != nil {
		return "", fmt.Errorf("build tool specs: %w", err)
	}

	invoker := tools.NewInvoker(tier.Tools)
	defer invoker.Close()

	if i > 0 {
		if err := r.sleep(ctx, s.StabilizeDelay); err != nil {
			return "", err
		}
	}

	log.Debug().Strs("tools", tier.Names()).Msg("dispatching")
	text, err := Race(ctx, deadline, s.CancelGrace, func(callCtx context.Context) (string, error) {
		session, err := r.backend.NewSession(callCtx, provider.SessionConfig{
			Instructions: instructions,
			Tools:        specs,
			Invoke:       invoker.Invoke,
		})
		if err != nil {
			return "", fmt.Errorf("create session: %w", err)
		}
		defer func() {
			if err := session.Close(); err != nil {
				log.Debug().Err(err).Msg("close session")
			}
		}()

		// A failed prewarm only costs latency; the call itself reports
		// real backend trouble.
		if err := session.Prewarm(callCtx); err != nil {
			if callCtx.Err() != nil {
				return "", callCtx.Err()
			}
			log.Debug().Err(err).Msg("prewarm failed")
		}
		return session.Respond(callCtx, provider.Prompt{History: tc.History, Text: tc.UserText})
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (r *Runner) validate(ctx context.Context, log zerolog.Logger, userText, text string) TurnResult {
	switch Validate(text, userText) {
	case VerdictCountOnly:
		return r.fallback(ctx, log, reasonContentFilter, CountAnswer)
	case VerdictFullList:
		return r.fallback(ctx, log, reasonToolRefusal, ListAnswer)
	default:
		return Success(text)
	}
}

// fallback answers from a snapshot taken now, bypassing the backend.
func (r *Runner) fallback(ctx context.Context, log zerolog.Logger, reason string, format func(storage.TaskSnapshot) string) TurnResult {
	snap, err := r.snapshots.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Str("reason", reason).Msg("read task snapshot")
		return Failure(FailureUnclassified, fmt.Sprintf("could not read your task list: %v", err))
	}
	r.metrics.observeFallback(reason)
	log.Info().Str("reason", reason).Int("count", snap.Count).Msg("answered from task store")
	return Success(format(snap))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
