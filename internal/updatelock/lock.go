package updatelock

import (
	"context"
	"time"
)

// Lock is the right to run one update. All state is guarded by the owning
// arbiter's mutex.
type Lock struct {
	arbiter   *Arbiter
	id        uint64
	initiator Initiator
	timer     *time.Timer
	tokens    map[*CancelToken]struct{}
}

func (l *Lock) ID() uint64 {
	return l.id
}

func (l *Lock) Initiator() Initiator {
	return l.initiator
}

// Release gives the lock back. Releasing a lock that was already superseded
// leaves the newer lock in place.
func (l *Lock) Release() {
	l.arbiter.mu.Lock()
	defer l.arbiter.mu.Unlock()
	l.arbiter.releaseLocked(l)
}

// Invalidate fires every outstanding token and releases the lock.
func (l *Lock) Invalidate() {
	l.arbiter.mu.Lock()
	defer l.arbiter.mu.Unlock()
	l.arbiter.invalidateLocked(l)
}

func (l *Lock) IsStillHeld() bool {
	l.arbiter.mu.Lock()
	defer l.arbiter.mu.Unlock()
	return l.arbiter.active == l
}

// GenerateCancelToken returns a token that fires when the lock is invalidated.
// The token context also ends with ctx.
func (l *Lock) GenerateCancelToken(ctx context.Context) (*CancelToken, error) {
	l.arbiter.mu.Lock()
	defer l.arbiter.mu.Unlock()
	if l.arbiter.active != l {
		return nil, ErrLockNotHeld
	}
	token := newCancelToken(ctx)
	l.tokens[token] = struct{}{}
	return token, nil
}

// DestroyCancelToken stops tracking token and marks it resolved.
func (l *Lock) DestroyCancelToken(token *CancelToken) {
	if token == nil {
		return
	}
	l.arbiter.mu.Lock()
	delete(l.tokens, token)
	l.arbiter.mu.Unlock()
	token.resolve()
}
