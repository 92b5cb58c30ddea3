package runner

import (
	"context"
	"fmt"
	"time"
)

// DefaultCancelGrace bounds how long Race waits for a cancelled call to exit.
const DefaultCancelGrace = 2 * time.Second

// TimeoutError is returned by Race when the deadline fires first.
type TimeoutError struct {
	Deadline Deadline
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout after %gs (%s)", e.Deadline.Seconds, e.Deadline.Reason)
}

type raceOutcome[T any] struct {
	value T
	err   error
}

// Race runs call against the deadline. Exactly one of the call's result or a
// *TimeoutError is returned. The loser is cancelled: on expiry the call's
// context is cancelled and Race waits up to grace for the call to return
// before giving up on it. If ctx ends first, ctx.Err() is returned the same
// way.
func Race[T any](ctx context.Context, d Deadline, grace time.Duration, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan raceOutcome[T], 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- raceOutcome[T]{err: fmt.Errorf("backend call panicked: %v", p)}
			}
		}()
		v, err := call(callCtx)
		done <- raceOutcome[T]{value: v, err: err}
	}()

	timer := time.NewTimer(d.Duration())
	defer timer.Stop()

	select {
	case out := <-done:
		return out.value, out.err
	case <-timer.C:
		cancel()
		awaitExit(done, grace)
		return zero, &TimeoutError{Deadline: d}
	case <-ctx.Done():
		cancel()
		awaitExit(done, grace)
		return zero, ctx.Err()
	}
}

func awaitExit[T any](done <-chan raceOutcome[T], grace time.Duration) {
	if grace <= 0 {
		return
	}
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
	}
}
