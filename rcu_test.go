package sched

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRCUSynchronizeWithNoPendingCallbacksIsNoop(t *testing.T) {
	cpus := NewCPUTable(2)
	d := NewRCUDomain(cpus)
	assert.NotPanics(t, func() { d.SynchronizeOnQuiescence() })
}

func TestRCUCallbackRunsOnlyOnceEveryCPUIsQuiescent(t *testing.T) {
	cpus := NewCPUTable(2)
	d := NewRCUDomain(cpus)

	cpus.CPU(0).RCUReadLock()

	ran := false
	p := &Proc{}
	p.rcuHead.callback = func() { ran = true }
	d.CallRCU(p)

	// CPU 0 is still inside a read-side critical section: the callback must
	// not run yet.
	d.SynchronizeOnQuiescence()
	assert.False(t, ran)

	cpus.CPU(0).RCUReadUnlock()
	d.SynchronizeOnQuiescence()
	assert.True(t, ran)
}

func TestRCUReadUnlockBelowZeroPanics(t *testing.T) {
	cpus := NewCPUTable(1)
	assert.Panics(t, func() { cpus.CPU(0).RCUReadUnlock() })
}

func TestRCUNestedReadLocksRequireMatchingUnlocks(t *testing.T) {
	cpus := NewCPUTable(1)
	d := NewRCUDomain(cpus)
	cpu := cpus.CPU(0)

	cpu.RCUReadLock()
	cpu.RCUReadLock()

	ran := false
	p := &Proc{}
	p.rcuHead.callback = func() { ran = true }
	d.CallRCU(p)

	cpu.RCUReadUnlock()
	d.SynchronizeOnQuiescence()
	assert.False(t, ran, "one outstanding nested read lock must still block the grace period")

	cpu.RCUReadUnlock()
	d.SynchronizeOnQuiescence()
	assert.True(t, ran)
}

func TestRCUConcurrentCallRCUFromMultipleCPUsIsSafe(t *testing.T) {
	cpus := NewCPUTable(4)
	d := NewRCUDomain(cpus)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	var ranCount int
	var mu sync.Mutex
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			p := &Proc{}
			p.rcuHead.callback = func() {
				mu.Lock()
				ranCount++
				mu.Unlock()
			}
			d.CallRCU(p)
		}()
	}
	wg.Wait()

	d.SynchronizeOnQuiescence()
	require.Equal(t, n, ranCount)
}
