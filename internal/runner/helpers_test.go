package runner

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"brainbox/internal/provider"
	"brainbox/internal/storage"
	"brainbox/internal/tools"
)

type stubTool struct {
	tools.BaseTool
}

func (s *stubTool) Execute(ctx context.Context, args map[string]any) (tools.ToolResult, error) {
	return tools.NewSuccessResult(s.ToolName + " ok"), nil
}

func newStubTool(name string) tools.Tool {
	return &stubTool{tools.BaseTool{
		ToolName:        name,
		ToolDescription: "stub " + name,
		ToolParameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	}}
}

func newTestRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	for _, name := range []string{"list_tasks", "create_task", "verify_task", "save_note"} {
		require.NoError(t, reg.Register(newStubTool(name)))
	}
	return reg
}

func newTestTiers(t *testing.T) *TierSelector {
	t.Helper()
	sel, err := NewTierSelector(newTestRegistry(t),
		[]string{"list_tasks", "create_task", "verify_task"},
		[]string{"create_task"})
	require.NoError(t, err)
	return sel
}

// step scripts one attempt of the fake backend.
type step struct {
	text       string
	err        error
	sessionErr error
	// block makes Respond wait until its context is cancelled.
	block bool
	// prewarmHold, when set, makes Prewarm wait on it without watching ctx.
	prewarmHold chan struct{}
	prewarmErr  error
	// onRespond runs inside Respond before it returns.
	onRespond func(ctx context.Context, cfg provider.SessionConfig)
}

type fakeBackend struct {
	mu       sync.Mutex
	steps    []step
	configs  []provider.SessionConfig
	sessions []*fakeSession
}

func newFakeBackend(steps ...step) *fakeBackend {
	return &fakeBackend{steps: steps}
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) NewSession(ctx context.Context, cfg provider.SessionConfig) (provider.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := len(b.configs)
	b.configs = append(b.configs, cfg)
	st := step{err: errors.New("unexpected attempt")}
	if idx < len(b.steps) {
		st = b.steps[idx]
	}
	if st.sessionErr != nil {
		return nil, st.sessionErr
	}
	s := &fakeSession{step: st, cfg: cfg}
	b.sessions = append(b.sessions, s)
	return s, nil
}

func (b *fakeBackend) sessionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.configs)
}

func (b *fakeBackend) config(i int) provider.SessionConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.configs[i]
}

type fakeSession struct {
	step     step
	cfg      provider.SessionConfig
	mu       sync.Mutex
	prewarms int
	prompts  []provider.Prompt
	closed   bool
}

func (s *fakeSession) Prewarm(ctx context.Context) error {
	s.mu.Lock()
	s.prewarms++
	s.mu.Unlock()
	if s.step.prewarmHold != nil {
		<-s.step.prewarmHold
	}
	return s.step.prewarmErr
}

func (s *fakeSession) Respond(ctx context.Context, p provider.Prompt) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, p)
	s.mu.Unlock()

	if s.step.onRespond != nil {
		s.step.onRespond(ctx, s.cfg)
	}
	if s.step.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.step.text, s.step.err
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeStore struct {
	mu    sync.Mutex
	snap  storage.TaskSnapshot
	err   error
	reads int
}

func (f *fakeStore) Snapshot(ctx context.Context) (storage.TaskSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	return f.snap, f.err
}

func snapshotOf(n int, done ...int) storage.TaskSnapshot {
	isDone := map[int]bool{}
	for _, d := range done {
		isDone[d] = true
	}
	snap := storage.TaskSnapshot{Count: n, Items: []storage.SnapshotItem{}}
	for i := 1; i <= n; i++ {
		snap.Items = append(snap.Items, storage.SnapshotItem{Text: "T" + strconv.Itoa(i), Done: isDone[i]})
	}
	return snap
}

// sleepRecorder replaces the runner's waits and records their durations.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) count(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.waits {
		if w == d {
			n++
		}
	}
	return n
}

func userTurn(text string) []ChatMessage {
	return []ChatMessage{{Role: RoleUser, Text: text, Sequence: 1}}
}

func newTestRunner(t *testing.T, backend provider.Backend, store SnapshotProvider, opts ...Option) (*Runner, *sleepRecorder) {
	t.Helper()
	rec := &sleepRecorder{}
	all := append([]Option{WithSleep(rec.sleep)}, opts...)
	r, err := New(backend, newTestTiers(t), store, all...)
	require.NoError(t, err)
	return r, rec
}
