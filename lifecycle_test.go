package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInitializedScheduler(t *testing.T, n int) *Scheduler {
	t.Helper()
	s, err := NewScheduler(WithCPUCount(n))
	require.NoError(t, err)
	require.NoError(t, s.Init())
	return s
}

func TestKernelProcCreateStartsUninterruptibleAndIsChildOfInit(t *testing.T) {
	s := newInitializedScheduler(t, 1)

	p, err := s.KernelProcCreate("worker", NewPriority(10, 0), CPUMaskAll(1), func(p *Proc, _, _ any) {}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, StateUninterruptible, p.State())
	assert.Same(t, s.InitProc(), p.Parent())

	found := false
	for _, c := range s.InitProc().children {
		if c == p {
			found = true
		}
	}
	assert.True(t, found, "new kernel proc must be linked into init's children")
}

// TestForkExitWaitRoundTrip is spec.md §8 property 9: fork returns a pid in
// the parent, and wait() later reports that same pid with the child's own
// exit status, once the child has actually run to completion.
func TestForkExitWaitRoundTrip(t *testing.T) {
	s := newRunningScheduler(t, 1)
	parent := s.InitProc()

	const wantStatus = int32(7)
	child, err := s.Fork(parent, func(child *Proc) {
		cpu := s.CurrentCPU(child.se)
		s.Exit(cpu, child, wantStatus, 0)
	})
	require.NoError(t, err)
	require.Greater(t, int32(child.PID()), int32(0))

	for deadline := time.Now().Add(2 * time.Second); child.State() != StateZombie; {
		if time.Now().After(deadline) {
			t.Fatal("forked child never reached zombie state")
		}
		time.Sleep(time.Millisecond)
	}

	pid, status, err := s.Wait(nil, parent)
	require.NoError(t, err)
	assert.Equal(t, child.PID(), pid)
	assert.Equal(t, wantStatus, status)

	// the reap deferred the actual procs-table removal to RCU; a context
	// switch normally drives this, so drive it directly here.
	s.rcu.SynchronizeOnQuiescence()
	assert.Nil(t, s.Procs().Lookup(pid))
}

func TestWaitOnChildlessParentReturnsErrNoSuchProcess(t *testing.T) {
	s := newInitializedScheduler(t, 1)
	childless, err := s.KernelProcCreate("lonely", NewPriority(10, 0), CPUMaskAll(1), func(p *Proc, _, _ any) {}, nil, nil)
	require.NoError(t, err)

	_, _, err = s.Wait(nil, childless)
	assert.ErrorIs(t, err, ErrNoSuchProcess)
}

func TestForkSharesSigActsUnderCloneSighandEquivalent(t *testing.T) {
	s := newRunningScheduler(t, 1)
	parent := s.InitProc()
	parent.sigActs.Share() // an extra reference, as another sharer would hold; Fork shares regardless

	child, err := s.Fork(parent, func(child *Proc) {
		cpu := s.CurrentCPU(child.se)
		s.Exit(cpu, child, 0, 0)
	})
	require.NoError(t, err)
	assert.Same(t, parent.sigActs, child.sigActs)

	for deadline := time.Now().Add(2 * time.Second); child.State() != StateZombie; {
		if time.Now().After(deadline) {
			t.Fatal("forked child never reached zombie state")
		}
		time.Sleep(time.Millisecond)
	}
	_, _, err = s.Wait(nil, parent)
	require.NoError(t, err)
}

func TestExitReparentsOrphanedChildrenToInit(t *testing.T) {
	s := newRunningScheduler(t, 1)

	type forkResult struct {
		child *Proc
		err   error
	}
	results := make(chan forkResult, 1)

	mid, err := s.KernelProcCreate("mid", NewPriority(10, 0), CPUMaskAll(1), func(p *Proc, _, _ any) {
		child, ferr := s.Fork(p, func(child *Proc) {
			// never exits on its own: outlives mid's own exit, so it must be
			// reparented rather than left dangling.
			cpu := s.CurrentCPU(child.se)
			for {
				s.Yield(cpu, child.se)
			}
		})
		results <- forkResult{child, ferr}
		cpu := s.CurrentCPU(p.se)
		s.Exit(cpu, p, 0, 0)
	}, nil, nil)
	require.NoError(t, err)
	s.Wakeup(mid)

	var grandchild *Proc
	select {
	case r := <-results:
		require.NoError(t, r.err)
		grandchild = r.child
	case <-time.After(2 * time.Second):
		t.Fatal("mid never forked its child")
	}

	for deadline := time.Now().Add(2 * time.Second); mid.State() != StateZombie; {
		if time.Now().After(deadline) {
			t.Fatal("mid never exited")
		}
		time.Sleep(time.Millisecond)
	}

	assert.Same(t, s.InitProc(), grandchild.Parent())
}
