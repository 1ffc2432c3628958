// Package updatelock guarantees that at most one wallpaper update runs at a
// time and lets higher priority requests take over from lower priority ones.
package updatelock

import (
	"errors"
	"sync"
	"time"

	"spaceeye/internal/logging"
)

const DefaultTimeout = 5 * time.Minute

var ErrLockNotHeld = errors.New("update lock is no longer held")

type Options struct {
	// Timeout after which a lock that was never released invalidates itself.
	Timeout time.Duration
	Logger  *logging.Logger
}

type Arbiter struct {
	timeout time.Duration
	logger  *logging.Logger

	mu     sync.Mutex
	active *Lock
	nextID uint64
}

func New(opts Options) *Arbiter {
	if opts.Logger == nil {
		panic("updatelock.New: logger must not be nil")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Arbiter{
		timeout: opts.Timeout,
		logger:  opts.Logger.Scope("lock"),
	}
}

// Acquire grants a new lock to initiator. When another lock is active the
// request is refused unless the initiator preempts, in which case the active
// lock is invalidated and all of its tokens have fired before Acquire returns.
func (a *Arbiter) Acquire(initiator Initiator) (*Lock, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if current := a.active; current != nil {
		if !initiator.Preempts() {
			a.logger.Debug("lock request refused",
				logging.Field("initiator", initiator.String()),
				logging.Field("holder", current.initiator.String()),
				logging.Field("holder_id", current.id),
			)
			return nil, false
		}
		a.logger.Info("preempting active update",
			logging.Field("initiator", initiator.String()),
			logging.Field("holder", current.initiator.String()),
			logging.Field("holder_id", current.id),
		)
		a.invalidateLocked(current)
	}

	a.nextID++
	lock := &Lock{
		arbiter:   a,
		id:        a.nextID,
		initiator: initiator,
		tokens:    map[*CancelToken]struct{}{},
	}
	lock.timer = time.AfterFunc(a.timeout, func() {
		a.logger.Warn("update lock timed out",
			logging.Field("id", lock.id),
			logging.Field("initiator", lock.initiator.String()),
			logging.Field("timeout", a.timeout.String()),
		)
		lock.Invalidate()
	})
	a.active = lock
	a.logger.Debug("lock granted", logging.Field("id", lock.id), logging.Field("initiator", initiator.String()))
	return lock, true
}

// Active returns the currently held lock, if any.
func (a *Arbiter) Active() (*Lock, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active, a.active != nil
}

func (a *Arbiter) invalidateLocked(lock *Lock) {
	for token := range lock.tokens {
		token.Cancel()
	}
	a.releaseLocked(lock)
}

func (a *Arbiter) releaseLocked(lock *Lock) {
	if lock.timer != nil {
		lock.timer.Stop()
	}
	if a.active == lock {
		a.active = nil
	}
}
