package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalSendUnknownPIDReturnsErrNoSuchProcess(t *testing.T) {
	s := newInitializedScheduler(t, 1)
	err := s.SignalSend(999, 1, SIGTERM, nil)
	assert.ErrorIs(t, err, ErrNoSuchProcess)
}

func TestSignalSendInvalidSignalNumberReturnsErrInvalidArgument(t *testing.T) {
	s := newInitializedScheduler(t, 1)
	target, err := s.KernelProcCreate("target", NewPriority(10, 0), CPUMaskAll(1), func(p *Proc, _, _ any) {}, nil, nil)
	require.NoError(t, err)

	err = s.SignalSend(target.PID(), 1, Signal(0), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = s.SignalSend(target.PID(), 1, Signal(NSIG), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSignalSendIgnoredSignalIsDropped(t *testing.T) {
	s := newInitializedScheduler(t, 1)
	target, err := s.KernelProcCreate("target", NewPriority(10, 0), CPUMaskAll(1), func(p *Proc, _, _ any) {}, nil, nil)
	require.NoError(t, err)
	target.sigActs.SetAction(SIGUSR1, SigAction{Disposition: DispIgnore})

	require.NoError(t, s.SignalSend(target.PID(), 1, SIGUSR1, nil))

	assert.False(t, target.pending.Pending(SIGUSR1))
	assert.False(t, target.flags.Test(FlagSigPending))
}

// TestSignalSendSigstopDirectlyTransitionsInterruptibleSleeper covers the
// Stop side of spec.md §4.4: a sleeper parked in an interruptible state has
// no rq entry to remove, so a stop signal transitions it straight to
// STOPPED without ever touching the scheduling loop.
func TestSignalSendSigstopDirectlyTransitionsInterruptibleSleeper(t *testing.T) {
	s := newInitializedScheduler(t, 1)
	target, err := s.KernelProcCreate("target", NewPriority(10, 0), CPUMaskAll(1), func(p *Proc, _, _ any) {}, nil, nil)
	require.NoError(t, err)
	target.state.Store(StateInterruptible)

	require.NoError(t, s.SignalSend(target.PID(), 1, SIGSTOP, nil))
	assert.Equal(t, StateStopped, target.State())

	// idempotent: a second SIGSTOP against an already-stopped target is a
	// no-op, per spec.md §8 property 8.
	require.NoError(t, s.SignalSend(target.PID(), 1, SIGSTOP, nil))
	assert.Equal(t, StateStopped, target.State())
}

// TestSignalSendSigcontResumesStoppedProcess covers the Continue side: a
// STOPPED process transitions back to RUNNING and is re-enqueued, again
// without requiring a live scheduling loop (enqueueWoken only mutates the
// target run queue; nobody needs to actually dispatch it for this
// assertion).
func TestSignalSendSigcontResumesStoppedProcess(t *testing.T) {
	s := newInitializedScheduler(t, 1)
	target, err := s.KernelProcCreate("target", NewPriority(10, 0), CPUMaskAll(1), func(p *Proc, _, _ any) {}, nil, nil)
	require.NoError(t, err)
	target.state.Store(StateStopped)

	require.NoError(t, s.SignalSend(target.PID(), 1, SIGCONT, nil))
	assert.Equal(t, StateRunning, target.State())
	assert.True(t, target.se.OnRQ())
}

// TestSignalSendSigkillTerminatesViaExit exercises the term branch of
// HandleSignal against a live scheduler: FlagKilled set by deliverTo wakes
// the process (if sleeping) and drives it through Exit once it reaches
// handle_signal at its next trap-return checkpoint.
func TestSignalSendSigkillTerminatesViaExit(t *testing.T) {
	s := newRunningScheduler(t, 1)
	target, err := s.KernelProcCreate("target", NewPriority(10, 0), CPUMaskAll(1), func(p *Proc, _, _ any) {
		cpu := s.CurrentCPU(p.se)
		for {
			if s.HandleSignal(cpu, p, nil, nil) {
				return
			}
			s.Yield(cpu, p.se)
		}
	}, nil, nil)
	require.NoError(t, err)
	s.Wakeup(target)

	// give the worker a chance to reach its HandleSignal/Yield loop before
	// delivering the kill, so the signal lands on a RUNNING target.
	for deadline := time.Now().Add(2 * time.Second); target.State() != StateRunning; {
		if time.Now().After(deadline) {
			t.Fatal("target never reached RUNNING")
		}
		time.Sleep(time.Millisecond)
	}

	require.NoError(t, s.SignalSend(target.PID(), 1, SIGKILL, nil))

	for deadline := time.Now().Add(2 * time.Second); target.State() != StateZombie; {
		if time.Now().After(deadline) {
			t.Fatal("target never reached zombie state after SIGKILL")
		}
		time.Sleep(time.Millisecond)
	}

	assert.Equal(t, SIGKILL, target.reasonSig)
	assert.Equal(t, int32(128+int32(SIGKILL)), target.ExitStatus())
}

// TestHandleSignalDeliversToHandlerPushingFrame exercises deliverToHandler's
// user-space path directly: no live CPU loop is needed since HandleSignal's
// handler branch never calls Yield, only PushSignalFrame and a sigacts
// update.
func TestHandleSignalDeliversToHandlerPushingFrame(t *testing.T) {
	s := newInitializedScheduler(t, 1)
	cpu := NewCPUTable(1).CPU(0)

	p := NewKernelProc(0, "user", NewPriority(10, 0), CPUMaskAll(1), nil)
	p.flags.Set(FlagUserSpace)

	const stackSize = 1 << 16
	vm := newFakeVM(stackSize)
	trap := &fakeTrapFrame{pc: 0x401234, sp: stackSize - 256}
	p.vm = vm

	p.sigActs.SetAction(SIGUSR1, SigAction{Disposition: DispHandler, Handler: 0x500000})

	_, err := s.procs.Allocate(p)
	require.NoError(t, err)
	require.NoError(t, s.SignalSend(p.PID(), 1, SIGUSR1, nil))
	assert.True(t, p.flags.Test(FlagSigPending))

	origPC, origSP := trap.PC(), trap.SP()
	terminated := s.HandleSignal(cpu, p, vm, trap)
	assert.False(t, terminated)

	assert.Equal(t, uintptr(0x500000), trap.PC())
	assert.NotEqual(t, origPC, trap.PC())
	assert.Less(t, trap.SP(), origSP)
	assert.False(t, p.flags.Test(FlagSigPending))
}

// TestHandleSignalKernelThreadDropsHandlerSignal covers the nil-trap
// branch of deliverToHandler: a kernel thread has no user frame to deliver
// into, so a DispHandler action simply never gets pushed and
// deliverToHandler reports false, leaving HandleSignal to return false
// rather than loop forever.
func TestHandleSignalKernelThreadDropsHandlerSignal(t *testing.T) {
	s := newInitializedScheduler(t, 1)
	cpu := NewCPUTable(1).CPU(0)

	p := NewKernelProc(0, "kthread", NewPriority(10, 0), CPUMaskAll(1), nil)
	p.sigActs.SetAction(SIGUSR1, SigAction{Disposition: DispHandler, Handler: 0x500000})

	_, err := s.procs.Allocate(p)
	require.NoError(t, err)
	require.NoError(t, s.SignalSend(p.PID(), 1, SIGUSR1, nil))

	terminated := s.HandleSignal(cpu, p, nil, nil)
	assert.False(t, terminated)
}
