package updatelock

import (
	"context"
	"errors"
	"sync"
)

// ErrLockInvalidated is the cancellation cause of tokens whose lock was
// preempted, released or timed out.
var ErrLockInvalidated = errors.New("update lock invalidated")

// CancelToken is a one-shot stop signal owned by a Lock. The downloader
// watches Context; the owner of the lock can Wait for the holder to finish
// with the token after cancelling it.
type CancelToken struct {
	ctx          context.Context
	cancel       context.CancelCauseFunc
	resolved     chan struct{}
	resolvedOnce sync.Once
}

func newCancelToken(parent context.Context) *CancelToken {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	return &CancelToken{
		ctx:      ctx,
		cancel:   cancel,
		resolved: make(chan struct{}),
	}
}

// Cancel fires the token. Repeated calls are no-ops.
func (t *CancelToken) Cancel() {
	t.cancel(ErrLockInvalidated)
}

// Context is done once the token fires or the parent context ends.
func (t *CancelToken) Context() context.Context {
	return t.ctx
}

func (t *CancelToken) Cancelled() bool {
	return t.ctx.Err() != nil
}

// Resolved is closed when the token holder is done with it.
func (t *CancelToken) Resolved() <-chan struct{} {
	return t.resolved
}

// Wait blocks until the token is resolved or ctx ends.
func (t *CancelToken) Wait(ctx context.Context) error {
	select {
	case <-t.resolved:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *CancelToken) resolve() {
	t.resolvedOnce.Do(func() {
		close(t.resolved)
		t.cancel(context.Canceled)
	})
}
