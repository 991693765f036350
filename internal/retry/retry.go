package retry

import (
	"context"
	"time"

	"github.com/spetersoncode/cradle"
)

// Do executes fn with retry logic.
// Returns the result on success, or the last error if all attempts fail.
// Cancelling ctx during a wait between attempts stops early with ctx.Err()
// instead of the last attempt's error.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	return DoWithEvents(ctx, cfg, nil, fn)
}

// DoNonNil is like Do for calls returning a pointer. A nil result without an
// error counts as a failed attempt with cradle.ErrEmptyResponse.
func DoNonNil[T any](ctx context.Context, cfg Config, events chan<- Event, fn func() (*T, error)) (*T, error) {
	return DoWithEvents(ctx, cfg, events, func() (*T, error) {
		res, err := fn()
		if err == nil && res == nil {
			return nil, cradle.ErrEmptyResponse
		}
		return res, err
	})
}

// DoWithEvents is like Do but emits events for observability. On cancellation
// during a wait it returns ctx.Err() and emits no EventExhausted.
// Events are sent non-blocking; if the channel is full, events are dropped.
// Pass nil for events to disable event emission (equivalent to Do).
func DoWithEvents[T any](ctx context.Context, cfg Config, events chan<- Event, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	maxAttempts := cfg.attempts()
	schedule := cfg.schedule()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		emit(events, Event{
			Type:        EventAttemptStart,
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
		})

		result, err := fn()
		if err == nil {
			emit(events, Event{
				Type:        EventSuccess,
				Attempt:     attempt,
				MaxAttempts: maxAttempts,
			})
			return result, nil
		}

		lastErr = err
		emit(events, Event{
			Type:        EventAttemptFailed,
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
			Error:       err,
		})

		// Don't sleep after the last attempt
		if attempt == maxAttempts {
			break
		}

		delay := schedule.NextBackOff()
		emit(events, Event{
			Type:        EventRetrying,
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
			Delay:       delay,
		})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	emit(events, Event{
		Type:        EventExhausted,
		Attempt:     maxAttempts,
		MaxAttempts: maxAttempts,
		Error:       lastErr,
	})

	return zero, lastErr
}
