package engine

import (
	"context"

	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/transaction"
)

// Future is the caller's handle on one submitted transaction. It is completed
// exactly once by an engine worker.
type Future struct {
	done   chan struct{}
	result transaction.Result
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// complete publishes the result. Must be called exactly once.
func (f *Future) complete(result transaction.Result) {
	f.result = result
	close(f.done)
}

// Done returns a channel closed when the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or ctx is done.
func (f *Future) Wait(ctx context.Context) (transaction.Result, error) {
	select {
	case <-f.done:
		return f.result, nil
	case <-ctx.Done():
		return transaction.Result{}, ctx.Err()
	}
}
