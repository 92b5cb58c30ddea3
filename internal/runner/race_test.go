package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(n int) Deadline {
	return Deadline{Seconds: float64(n) / 1000, Reason: ReasonSimple}
}

func TestRace_CallWins(t *testing.T) {
	v, err := Race(context.Background(), ms(500), 0, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRace_CallError(t *testing.T) {
	want := errors.New("bad")
	_, err := Race(context.Background(), ms(500), 0, func(ctx context.Context) (string, error) {
		return "", want
	})
	assert.ErrorIs(t, err, want)
}

func TestRace_TimeoutCancelsCall(t *testing.T) {
	var cancelled atomic.Bool
	start := time.Now()

	_, err := Race(context.Background(), ms(20), time.Second, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		cancelled.Store(true)
		return "", ctx.Err()
	})

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ReasonSimple, te.Deadline.Reason)
	assert.True(t, cancelled.Load(), "call should observe cancellation before Race returns")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRace_GraceBoundsStuckCall(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	start := time.Now()

	_, err := Race(context.Background(), ms(10), 30*time.Millisecond, func(ctx context.Context) (string, error) {
		<-release
		return "late", nil
	})

	var te *TimeoutError
	assert.ErrorAs(t, err, &te)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRace_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Race(ctx, ms(5000), time.Second, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRace_RecoversPanic(t *testing.T) {
	_, err := Race(context.Background(), ms(500), 0, func(ctx context.Context) (string, error) {
		panic("kaboom")
	})
	assert.ErrorContains(t, err, "kaboom")
}

func TestTimeoutError_Message(t *testing.T) {
	err := &TimeoutError{Deadline: Deadline{Seconds: 300, Reason: ReasonComplex}}
	assert.Equal(t, "request timeout after 300s (complex)", err.Error())
}
