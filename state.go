package sched

import (
	"sync/atomic"
)

// ProcState is the PCB's state, per spec.md §3: one of UNUSED, USED,
// INTERRUPTIBLE, KILLABLE, TIMER, KILLABLE_TIMER, UNINTERRUPTIBLE, WAKENING,
// RUNNING, STOPPED, EXITING, ZOMBIE.
//
// State Machine:
//
//	Unused → Used                     [allocproc]
//	Used → Uninterruptible            [fork / kernel_proc_create, before first wake]
//	{Interruptible,Killable,Timer,KillableTimer,Uninterruptible} → Wakening
//	                                   [try-wake CAS, serializes concurrent wakers]
//	Wakening → Running                 [wake completes]
//	Running → {Interruptible,...}      [process calls sleep/scheduler_sleep]
//	Running → Stopped                  [signal-delivery stop path]
//	Stopped → Running                  [Continue protocol]
//	Running → Exiting → Zombie         [exit()]
//	Zombie → (freed)                   [wait() reaps, RCU-deferred free]
//
// Transition Rules (the same discipline the teacher's FastState uses,
// generalized from two live states to twelve):
//   - Use TryTransition (CAS) whenever the source state is part of the
//     contract (sleep→wakening, wakening→running: spec.md §4.3).
//   - Use Store for irreversible transitions where the source doesn't
//     matter (entering Zombie from Exiting).
type ProcState uint32

const (
	StateUnused ProcState = iota
	StateUsed
	StateInterruptible
	StateKillable
	StateTimer
	StateKillableTimer
	StateUninterruptible
	StateWakening
	StateRunning
	StateStopped
	StateExiting
	StateZombie
)

func (s ProcState) String() string {
	switch s {
	case StateUnused:
		return "UNUSED"
	case StateUsed:
		return "USED"
	case StateInterruptible:
		return "INTERRUPTIBLE"
	case StateKillable:
		return "KILLABLE"
	case StateTimer:
		return "TIMER"
	case StateKillableTimer:
		return "KILLABLE_TIMER"
	case StateUninterruptible:
		return "UNINTERRUPTIBLE"
	case StateWakening:
		return "WAKENING"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	case StateExiting:
		return "EXITING"
	case StateZombie:
		return "ZOMBIE"
	default:
		return "UNKNOWN"
	}
}

// IsSleeping reports whether s is one of the sleeping variants the spec
// differentiates by wake eligibility (§5): Interruptible, Killable, Timer,
// KillableTimer, or Uninterruptible.
func (s ProcState) IsSleeping() bool {
	switch s {
	case StateInterruptible, StateKillable, StateTimer, StateKillableTimer, StateUninterruptible:
		return true
	default:
		return false
	}
}

// WakeableBySignal reports whether a sleeper in state s may be woken by
// signal_notify: INTERRUPTIBLE by any signal, KILLABLE/KILLABLE_TIMER by
// SIGKILL only (checked by the caller), never UNINTERRUPTIBLE.
func (s ProcState) WakeableBySignal() bool {
	switch s {
	case StateInterruptible, StateKillable, StateKillableTimer:
		return true
	default:
		return false
	}
}

// FastState is a lock-free, cache-line-padded atomic state word. Every PCB
// embeds one for ProcState, so a waker hammering it from another CPU doesn't
// false-share a cache line with its neighbours.
type FastState struct { // betteralign:ignore
	_ [64]byte // cache-line padding before the hot word
	v atomic.Uint32
	_ [60]byte // pad to a full cache line (64 - 4)
}

// NewFastState creates a state machine initialized to s.
func NewFastState(s ProcState) *FastState {
	f := &FastState{}
	f.v.Store(uint32(s))
	return f
}

// Load returns the current state with acquire ordering.
func (f *FastState) Load() ProcState { return ProcState(f.v.Load()) }

// Store unconditionally (and, by convention, irreversibly) stores a new
// state with release ordering.
func (f *FastState) Store(s ProcState) { f.v.Store(uint32(s)) }

// TryTransition CAS-transitions from "from" to "to". Returns false if the
// current state was not "from" — the caller's cue that another party (a
// concurrent waker, most commonly) already acted.
func (f *FastState) TryTransition(from, to ProcState) bool {
	return f.v.CompareAndSwap(uint32(from), uint32(to))
}

// TransitionAny attempts a CAS from any of validFrom to to, returning true
// on the first one that succeeds.
func (f *FastState) TransitionAny(validFrom []ProcState, to ProcState) bool {
	for _, from := range validFrom {
		if f.v.CompareAndSwap(uint32(from), uint32(to)) {
			return true
		}
	}
	return false
}
