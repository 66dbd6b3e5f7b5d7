package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingSetNonQueuedSignals(t *testing.T) {
	var p PendingSet
	assert.False(t, p.Pending(SIGUSR1))

	p.SetNonQueued(SIGUSR1)
	assert.True(t, p.Pending(SIGUSR1))
	assert.Equal(t, uint32(1)<<uint(SIGUSR1), p.Mask())

	p.ClearNonQueued(SIGUSR1)
	assert.False(t, p.Pending(SIGUSR1))
}

func TestPendingSetQueueCapDropsOldest(t *testing.T) {
	var p PendingSet
	for i := 0; i < SigQueueCap+4; i++ {
		p.Enqueue(SIGUSR2, KSigInfo{Signo: SIGUSR2, Sender: PID(i)})
	}

	// spec.md §8 property 6: the queue never exceeds its cap, and the
	// oldest entries are the ones dropped.
	var got []PID
	for {
		info, ok := p.PopHead(SIGUSR2)
		if !ok {
			break
		}
		got = append(got, info.Sender)
	}
	require.Len(t, got, SigQueueCap)
	// the first 4 sends (pid 0..3) were dropped; the surviving window is
	// pid 4..11.
	assert.Equal(t, PID(4), got[0])
	assert.Equal(t, PID(11), got[len(got)-1])
}

func TestPendingSetClearStopSignals(t *testing.T) {
	var p PendingSet
	p.SetNonQueued(SIGSTOP)
	p.Enqueue(SIGTSTP, KSigInfo{Signo: SIGTSTP})
	p.SetNonQueued(SIGTERM)

	p.ClearStopSignals(sigMaskOf(SIGSTOP, SIGTSTP, SIGTTIN, SIGTTOU))

	assert.False(t, p.Pending(SIGSTOP))
	assert.False(t, p.Pending(SIGTSTP))
	assert.True(t, p.Pending(SIGTERM))
}

func TestPendingSetLowestPendingUnmasked(t *testing.T) {
	var p PendingSet
	p.SetNonQueued(SIGTERM)
	p.SetNonQueued(SIGHUP)

	assert.Equal(t, SIGHUP, p.lowestPendingUnmasked(0))
	assert.Equal(t, SIGTERM, p.lowestPendingUnmasked(sigMaskOf(SIGHUP)))
	assert.Equal(t, Signal(-1), p.lowestPendingUnmasked(sigMaskOf(SIGHUP, SIGTERM)))
}

func TestRecalcSigPendingFlag(t *testing.T) {
	p := &Proc{}
	p.pending.SetNonQueued(SIGTERM)

	p.recalcSigPending(0)
	assert.True(t, p.flags.Test(FlagSigPending))

	p.recalcSigPending(sigMaskOf(SIGTERM))
	assert.False(t, p.flags.Test(FlagSigPending))
}
