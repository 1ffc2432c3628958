package updatelock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spaceeye/internal/logging"
)

func newTestArbiter(t *testing.T, timeout time.Duration) *Arbiter {
	t.Helper()
	logger := logging.New(false)
	logger.SetTerminalOutputEnabled(false)
	return New(Options{Timeout: timeout, Logger: logger})
}

func TestAcquireGrantsWhenIdle(t *testing.T) {
	a := newTestArbiter(t, 0)
	lock, ok := a.Acquire(HeartbeatTimer)
	if !ok || lock == nil {
		t.Fatalf("Acquire(HeartbeatTimer) = %v, %v, want granted", lock, ok)
	}
	if !lock.IsStillHeld() {
		t.Fatalf("IsStillHeld() = false, want true")
	}
	if active, ok := a.Active(); !ok || active != lock {
		t.Fatalf("Active() = %v, %v, want granted lock", active, ok)
	}
	if a.timeout != DefaultTimeout {
		t.Fatalf("timeout = %v, want %v", a.timeout, DefaultTimeout)
	}
}

func TestPreemptionTable(t *testing.T) {
	tests := []struct {
		holder    Initiator
		requester Initiator
		granted   bool
	}{
		{holder: User, requester: HeartbeatTimer, granted: false},
		{holder: HeartbeatTimer, requester: HeartbeatTimer, granted: false},
		{holder: HeartbeatTimer, requester: User, granted: true},
		{holder: User, requester: User, granted: true},
		{holder: User, requester: DisplayChangeWatcher, granted: true},
		{holder: DisplayChangeWatcher, requester: User, granted: true},
	}
	for _, tc := range tests {
		t.Run(tc.holder.String()+"/"+tc.requester.String(), func(t *testing.T) {
			a := newTestArbiter(t, time.Minute)
			first, ok := a.Acquire(tc.holder)
			if !ok {
				t.Fatalf("Acquire(%v) refused on idle arbiter", tc.holder)
			}
			second, ok := a.Acquire(tc.requester)
			if ok != tc.granted {
				t.Fatalf("Acquire(%v) granted = %v, want %v", tc.requester, ok, tc.granted)
			}
			if !ok {
				if second != nil {
					t.Fatalf("refused Acquire returned lock %v", second)
				}
				if !first.IsStillHeld() {
					t.Fatalf("refused request released the holder")
				}
				return
			}
			if first.IsStillHeld() {
				t.Fatalf("preempted lock still held")
			}
			if second.ID() <= first.ID() {
				t.Fatalf("ID() = %d, want greater than %d", second.ID(), first.ID())
			}
		})
	}
}

func TestPreemptionFiresTokensBeforeGrant(t *testing.T) {
	a := newTestArbiter(t, time.Minute)
	heartbeat, _ := a.Acquire(HeartbeatTimer)
	tokens := make([]*CancelToken, 3)
	for i := range tokens {
		token, err := heartbeat.GenerateCancelToken(context.Background())
		if err != nil {
			t.Fatalf("GenerateCancelToken() error = %v", err)
		}
		tokens[i] = token
	}

	if _, ok := a.Acquire(User); !ok {
		t.Fatalf("Acquire(User) refused")
	}
	for i, token := range tokens {
		if !token.Cancelled() {
			t.Fatalf("token %d not cancelled when Acquire returned", i)
		}
		if cause := context.Cause(token.Context()); !errors.Is(cause, ErrLockInvalidated) {
			t.Fatalf("token %d cause = %v, want %v", i, cause, ErrLockInvalidated)
		}
	}
}

func TestReleaseAfterSupersedeKeepsNewLock(t *testing.T) {
	a := newTestArbiter(t, time.Minute)
	old, _ := a.Acquire(HeartbeatTimer)
	current, _ := a.Acquire(User)

	old.Release()
	old.Invalidate()
	if !current.IsStillHeld() {
		t.Fatalf("stale Release() cleared the newer lock")
	}
	current.Release()
	if _, ok := a.Active(); ok {
		t.Fatalf("Active() reports a lock after Release()")
	}
}

func TestGenerateCancelTokenOnSupersededLock(t *testing.T) {
	a := newTestArbiter(t, time.Minute)
	old, _ := a.Acquire(DisplayChangeWatcher)
	if _, ok := a.Acquire(User); !ok {
		t.Fatalf("Acquire(User) refused")
	}
	if _, err := old.GenerateCancelToken(context.Background()); !errors.Is(err, ErrLockNotHeld) {
		t.Fatalf("GenerateCancelToken() error = %v, want %v", err, ErrLockNotHeld)
	}
}

func TestDestroyCancelTokenResolves(t *testing.T) {
	a := newTestArbiter(t, time.Minute)
	lock, _ := a.Acquire(User)
	token, err := lock.GenerateCancelToken(context.Background())
	if err != nil {
		t.Fatalf("GenerateCancelToken() error = %v", err)
	}
	lock.DestroyCancelToken(token)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := token.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if len(lock.tokens) != 0 {
		t.Fatalf("tracked tokens = %d, want 0", len(lock.tokens))
	}
	lock.DestroyCancelToken(token)
}

func TestLockTimesOut(t *testing.T) {
	a := newTestArbiter(t, 20*time.Millisecond)
	lock, _ := a.Acquire(HeartbeatTimer)
	token, err := lock.GenerateCancelToken(context.Background())
	if err != nil {
		t.Fatalf("GenerateCancelToken() error = %v", err)
	}

	select {
	case <-token.Context().Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("token not cancelled after lock timeout")
	}
	if lock.IsStillHeld() {
		t.Fatalf("IsStillHeld() = true after timeout")
	}
	if next, ok := a.Acquire(HeartbeatTimer); !ok {
		t.Fatalf("Acquire() after timeout = %v, %v, want granted", next, ok)
	}
}

func TestConcurrentAcquireKeepsSingleHolder(t *testing.T) {
	a := newTestArbiter(t, time.Minute)
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			lock, ok := a.Acquire(User)
			if !ok {
				return
			}
			lock.Release()
		})
	}
	wg.Wait()
	if active, ok := a.Active(); ok {
		t.Fatalf("Active() = %v after all releases", active)
	}
}
