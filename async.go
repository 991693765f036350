package cradle

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultAsyncWorkers is the number of worker slots of a Bridge built with n <= 0.
const DefaultAsyncWorkers = 4

// CompleteFunc is a blocking completion call.
type CompleteFunc func(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)

// Bridge runs blocking completion calls on background workers so that
// non-blocking callers can wait on a channel instead.
//
// Each call occupies one worker slot until it returns. Once dispatched a call
// cannot be cancelled: it runs with the caller's context values but without its
// cancellation, until it succeeds or exhausts its retries.
type Bridge struct {
	slots *semaphore.Weighted
	size  int
}

// NewBridge creates a bridge with n worker slots.
func NewBridge(n int) *Bridge {
	if n <= 0 {
		n = DefaultAsyncWorkers
	}
	return &Bridge{slots: semaphore.NewWeighted(int64(n)), size: n}
}

// Size returns the number of worker slots.
func (b *Bridge) Size() int { return b.size }

// Run dispatches fn(req) and returns immediately. The result and error are
// delivered exactly as fn returned them.
func (b *Bridge) Run(ctx context.Context, fn CompleteFunc, req *CompletionRequest) <-chan AsyncResult {
	ch := make(chan AsyncResult, 1)
	detached := context.WithoutCancel(ctx)

	go func() {
		defer close(ch)

		// Acquire cannot fail on a context that is never cancelled.
		_ = b.slots.Acquire(detached, 1)
		defer b.slots.Release(1)

		res, err := fn(detached, req)
		ch <- AsyncResult{Result: res, Err: err}
	}()

	return ch
}

// Await blocks until the async result arrives.
func Await(ch <-chan AsyncResult) (*CompletionResult, error) {
	r := <-ch
	return r.Result, r.Err
}
