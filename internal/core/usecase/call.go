package usecase

import "context"

type CallStatus string

const (
	CallPending   CallStatus = "pending"
	CallSucceeded CallStatus = "succeeded"
	CallFailed    CallStatus = "failed"
)

// Call is the result handle of one asynchronous operation. Its status and
// error belong to this call alone, so concurrent operations never overwrite
// each other's outcome.
type Call[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go starts fn in its own goroutine and returns a handle to its result.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Call[T] {
	c := &Call[T]{done: make(chan struct{})}
	go func() {
		defer close(c.done)
		c.value, c.err = fn(ctx)
	}()
	return c
}

func (c *Call[T]) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call finishes or ctx is done.
func (c *Call[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (c *Call[T]) Status() CallStatus {
	select {
	case <-c.done:
		if c.err != nil {
			return CallFailed
		}
		return CallSucceeded
	default:
		return CallPending
	}
}

// Err returns the call error, or nil while the call is still pending.
func (c *Call[T]) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}
