package sched

import (
	"sync/atomic"
)

// PID identifies a process in the global process table.
type PID int32

// Proc is the process control block from spec.md §3: an atomic state, an
// atomic flag word, a pid, a wait-channel pointer, parent/siblings/children
// links forming a process tree, an exit status, kernel-stack fields,
// pointers to shared VM/sigacts/fs/fd collaborators, a pending-signal set
// with per-signal FIFO queues, and an RCU head used to defer freeing. It
// owns exactly one SchedEntity.
type Proc struct {
	pid  PID
	name string

	se    *SchedEntity
	state *FastState
	flags FlagWord

	// Lock is the PCB lock from the lock hierarchy in spec.md §4.4
	// (sleep-queue lock, then PCB lock, then pi_lock, then rq spinlock).
	// It guards the process-tree links, exit status, and collaborator
	// pointers below; it does NOT guard se's own on_rq/on_cpu/state,
	// which have their own ordering contract.
	Lock Spinlock

	parent   *Proc
	children []*Proc

	exitStatus atomic.Int32
	reasonSig  Signal // signal that caused termination, 0 if exit() was explicit

	kstackBase  uintptr
	kstackOrder int

	vm      VM
	sigActs *SigActs
	fs      FSState
	fds     FDTable

	pending  PendingSet
	rcuHead  rcuHead
	waitChan chan struct{} // closed by exit(), used to wake a sleeping wait()

	// onChan is the wait-channel value this proc is currently parked on
	// (sleep_on_chan), or nil. Guarded by Lock.
	onChan any

	// altStack and lastFrame back the signal-frame stack (frame.go):
	// altStack is the process's currently installed alternate signal stack
	// descriptor, and lastFrame is the user-stack address of the most
	// recently pushed SignalFrame, chaining PrevFrame pointers across
	// nested handler entries. Both guarded by Lock.
	altStack  AltStack
	lastFrame uintptr
}

// NewKernelProc builds a PCB for a kernel thread: no user VM, UNINTERRUPTIBLE
// initial state, inheriting fs from init per spec.md §4.4 "kernel_proc_create
// allocates a PCB whose entry is a kernel function; no user VM, but it
// inherits the fs state from init."
func NewKernelProc(pid PID, name string, prio Priority, affinity CPUMask, fs FSState) *Proc {
	p := &Proc{
		pid:      pid,
		name:     name,
		state:    NewFastState(StateUsed),
		fs:       fs,
		sigActs:  NewSigActs(),
		waitChan: make(chan struct{}),
	}
	p.se = NewSchedEntity(p, prio, affinity)
	p.state.Store(StateUninterruptible)
	return p
}

// PID returns the process id.
func (p *Proc) PID() PID { return p.pid }

// Name returns the process's display name.
func (p *Proc) Name() string { return p.name }

// SE returns the process's scheduling entity.
func (p *Proc) SE() *SchedEntity { return p.se }

// State returns the process's current state.
func (p *Proc) State() ProcState { return p.state.Load() }

// ExitStatus returns the exit status recorded by exit(), valid once the
// process is ZOMBIE.
func (p *Proc) ExitStatus() int32 { return p.exitStatus.Load() }

// Parent returns the process's parent, or nil for the init process.
func (p *Proc) Parent() *Proc { return p.parent }
