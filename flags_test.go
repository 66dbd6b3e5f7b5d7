package sched

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagWordSetClearTest(t *testing.T) {
	var f FlagWord
	f.Set(FlagValid)
	assert.True(t, f.Test(FlagValid))
	assert.False(t, f.Test(FlagKilled))

	f.Set(FlagKilled)
	assert.True(t, f.Test(FlagValid|FlagKilled))

	f.Clear(FlagValid)
	assert.False(t, f.Test(FlagValid))
	assert.True(t, f.Any(FlagKilled))
}

func TestFlagWordConcurrentSetClear(t *testing.T) {
	var f FlagWord
	var wg sync.WaitGroup
	masks := []uint32{FlagValid, FlagKilled, FlagOnChan, FlagSigPending, FlagUserSpace, FlagStopPending}
	for _, m := range masks {
		wg.Add(1)
		go func(m uint32) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				f.Set(m)
				f.Clear(m)
			}
		}(m)
	}
	wg.Wait()
	assert.Equal(t, uint32(0), f.Load())
}

func TestFastStateTransitions(t *testing.T) {
	s := NewFastState(StateUsed)
	assert.Equal(t, StateUsed, s.Load())

	require.True(t, s.TryTransition(StateUsed, StateUninterruptible))
	assert.Equal(t, StateUninterruptible, s.Load())
	assert.False(t, s.TryTransition(StateUsed, StateWakening))

	require.True(t, s.TransitionAny([]ProcState{StateInterruptible, StateUninterruptible}, StateWakening))
	assert.Equal(t, StateWakening, s.Load())

	s.Store(StateZombie)
	assert.Equal(t, StateZombie, s.Load())
}

func TestProcStateHelpers(t *testing.T) {
	assert.True(t, StateInterruptible.IsSleeping())
	assert.True(t, StateUninterruptible.IsSleeping())
	assert.False(t, StateRunning.IsSleeping())

	assert.True(t, StateInterruptible.WakeableBySignal())
	assert.True(t, StateKillable.WakeableBySignal())
	assert.False(t, StateUninterruptible.WakeableBySignal())
}

func TestProcStateString(t *testing.T) {
	assert.Equal(t, "RUNNING", StateRunning.String())
	assert.Equal(t, "ZOMBIE", StateZombie.String())
	assert.Equal(t, "UNKNOWN", ProcState(999).String())
}
