// Package lock provides a reentrant lock keyed on explicit owner tokens.
//
// Goroutines have no identity, so each cooperating loop (the event
// dispatcher, the render loop) allocates an Owner once and passes it on
// every acquisition. The same owner re-enters without blocking; other
// owners queue and are handed the lock one at a time, in arrival order.
package lock

import (
	"context"
	"sync"
	"sync/atomic"
)

// Owner identifies a lock holder. The zero Owner is never valid.
type Owner uint64

var nextOwner atomic.Uint64

// NewOwner returns a fresh owner token.
func NewOwner() Owner {
	return Owner(nextOwner.Add(1))
}

type waiter struct {
	owner Owner
	ready chan struct{}
}

// RLock is a reentrant lock with FIFO hand-off to waiting owners.
// The zero value is unlocked and ready to use.
type RLock struct {
	mu      sync.Mutex
	owner   Owner
	depth   int
	waiters []*waiter
}

// Lock acquires l for o, blocking while another owner holds it.
func (l *RLock) Lock(o Owner) {
	_ = l.LockContext(context.Background(), o)
}

// LockContext acquires l for o, or returns ctx.Err() if ctx ends first.
func (l *RLock) LockContext(ctx context.Context, o Owner) error {
	if o == 0 {
		panic("lock: zero owner")
	}
	l.mu.Lock()
	switch l.owner {
	case 0:
		l.owner, l.depth = o, 1
		l.mu.Unlock()
		return nil
	case o:
		l.depth++
		l.mu.Unlock()
		return nil
	}
	w := &waiter{owner: o, ready: make(chan struct{})}
	l.waiters = append(l.waiters, w)
	l.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-w.ready:
		// Handed over while we were giving up; pass it on.
		l.releaseLocked()
	default:
		for i, x := range l.waiters {
			if x == w {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				break
			}
		}
	}
	return ctx.Err()
}

// TryLock acquires l for o only if that does not block.
func (l *RLock) TryLock(o Owner) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.owner {
	case 0:
		l.owner, l.depth = o, 1
		return true
	case o:
		l.depth++
		return true
	}
	return false
}

// Unlock releases one level of o's hold. Unlocking a lock o does not hold
// panics, like sync.Mutex.
func (l *RLock) Unlock(o Owner) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != o || l.depth == 0 {
		panic("lock: unlock by non-owner")
	}
	l.depth--
	if l.depth == 0 {
		l.releaseLocked()
	}
}

func (l *RLock) releaseLocked() {
	if len(l.waiters) == 0 {
		l.owner, l.depth = 0, 0
		return
	}
	w := l.waiters[0]
	l.waiters = l.waiters[1:]
	l.owner, l.depth = w.owner, 1
	close(w.ready)
}

// Do runs fn while holding l for o.
func (l *RLock) Do(o Owner, fn func()) {
	l.Lock(o)
	defer l.Unlock(o)
	fn()
}

// Locked reports whether any owner holds l.
func (l *RLock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner != 0
}

// HeldBy reports whether o holds l.
func (l *RLock) HeldBy(o Owner) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return o != 0 && l.owner == o
}

func (l *RLock) waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.waiters)
}
