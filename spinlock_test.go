package sched

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpinlockLockUnlockRoundTrip(t *testing.T) {
	var l Spinlock
	l.Lock()
	assert.NotPanics(t, func() { l.Unlock() })
}

func TestSpinlockUnlockWhenNotHeldPanics(t *testing.T) {
	var l Spinlock
	assert.Panics(t, func() { l.Unlock() })
}

func TestSpinlockTryLockFailsWhileHeld(t *testing.T) {
	var l Spinlock
	require := assert.New(t)
	require.True(l.TryLock())
	require.False(l.TryLock())
	l.Unlock()
	require.True(l.TryLock())
}

func TestSpinlockSerializesConcurrentIncrements(t *testing.T) {
	var l Spinlock
	counter := 0
	var wg sync.WaitGroup
	const n = 200
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			l.Lock()
			counter++
			l.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, n, counter)
}
