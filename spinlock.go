package sched

import (
	"runtime"
	"sync/atomic"
)

// Spinlock is a simple TAS spinlock used for rq locks, pi_locks, and sigacts
// locks, mirroring the "spin, don't block" discipline the design calls for
// at those points (spec.md §4.4, §5): a goroutine holding one of these
// briefly must never be descheduled behind a channel receive.
type Spinlock struct {
	held atomic.Bool
}

// Lock spins until the lock is acquired, yielding the P between attempts so
// a single goroutine doesn't starve the runtime scheduler.
func (l *Spinlock) Lock() {
	for !l.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

// TryLock attempts to acquire the lock without spinning.
func (l *Spinlock) TryLock() bool {
	return l.held.CompareAndSwap(false, true)
}

// Unlock releases the lock. Unlocking an unheld lock is a programmer error.
func (l *Spinlock) Unlock() {
	if !l.held.CompareAndSwap(true, false) {
		invariant("unlock of unheld spinlock")
	}
}
