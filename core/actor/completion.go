package actor

import (
	"context"
	"sync"
)

// Sentinel is a well-known, non-error outcome delivered on a completion when
// an invocation could not be (or will not be) dispatched. Sentinels are
// reports, not failures: the completion resolves successfully carrying the
// sentinel as its value.
type Sentinel string

const (
	// SentinelStopped resolves invocations sent to a closed mailbox.
	SentinelStopped Sentinel = "actor stopped"
	// SentinelMailboxFull resolves invocations rejected by a bounded mailbox.
	SentinelMailboxFull Sentinel = "mailbox full"
	// SentinelDropped resolves invocations displaced by an overflow policy.
	SentinelDropped Sentinel = "dropped due to overflow"
)

func (s Sentinel) String() string { return string(s) }

// Completion is a one-shot result slot, settable exactly once with a value
// or an error. The dispatcher completes it after delivering the invocation;
// callers await it.
type Completion struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

// NewCompletion creates an unresolved completion.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// With resolves the completion with a value. Later calls to With or Fail are
// no-ops.
func (c *Completion) With(value any) {
	c.once.Do(func() {
		c.value = value
		close(c.done)
	})
}

// Fail resolves the completion with an error. Later calls to With or Fail
// are no-ops.
func (c *Completion) Fail(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Done is closed once the completion is resolved.
func (c *Completion) Done() <-chan struct{} { return c.done }

// IsResolved reports whether the completion has been settled.
func (c *Completion) IsResolved() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Await blocks until the completion resolves or ctx is cancelled.
func (c *Completion) Await(ctx context.Context) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return c.value, c.err
	}
}

// Answer is a typed view over a completion, returned by [Ask]. A sentinel
// outcome yields the zero value of R with a nil error; use [Answer.Completion]
// to observe the raw outcome.
type Answer[R any] struct {
	c *Completion
}

// Completion returns the underlying untyped completion.
func (a *Answer[R]) Completion() *Completion { return a.c }

// Await blocks until the result is available or ctx is cancelled.
func (a *Answer[R]) Await(ctx context.Context) (R, error) {
	var zero R
	v, err := a.c.Await(ctx)
	if err != nil {
		return zero, err
	}
	if r, ok := v.(R); ok {
		return r, nil
	}
	return zero, nil
}
