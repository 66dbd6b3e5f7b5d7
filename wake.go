package sched

import "time"

// This file implements the wake, stop, and continue protocols from spec.md
// §4.4, modeled on Linux's try_to_wake_up: the lock-free dance between a
// waker and the sleeper's own context_switch_finish race-fix path
// (contextswitch.go) that together guarantee a woken process ends up
// enqueued exactly once, however the race unfolds.

// sleepingStates lists every ProcState TryTransition accepts as a wake
// source for the generic Wakeup path.
var sleepingStates = []ProcState{
	StateInterruptible, StateKillable, StateTimer, StateKillableTimer, StateUninterruptible,
}

// Wakeup implements spec.md §4.4 "Wake (target ≠ self)": wakes p to
// RUNNING unconditionally (any sleeping state), picking a target rq via
// the owning class's SelectTaskRQ and enqueuing unless the race-fix path in
// contextSwitchFinish beat it there. No-op if p is already runnable or
// already being woken by a concurrent caller.
func (s *Scheduler) Wakeup(p *Proc) {
	s.wake(p, sleepingStates, WakeNormal)
}

// WakeupInterruptible wakes p only if its current state is exactly
// INTERRUPTIBLE; used by signal delivery (signal.go) for signals that may
// interrupt a normal sleep.
func (s *Scheduler) WakeupInterruptible(p *Proc) bool {
	return s.wake(p, []ProcState{StateInterruptible}, WakeInterrupted)
}

// WakeupKillable wakes p only if its current state is KILLABLE or
// KILLABLE_TIMER; used for SIGKILL, which must reach even a process that
// declined ordinary signal interruption.
func (s *Scheduler) WakeupKillable(p *Proc) bool {
	return s.wake(p, []ProcState{StateKillable, StateKillableTimer}, WakeInterrupted)
}

// WakeupTimeout wakes p only if its current state is TIMER or
// KILLABLE_TIMER; the Timer collaborator calls this when a deadline fires.
func (s *Scheduler) WakeupTimeout(p *Proc) bool {
	return s.wake(p, []ProcState{StateTimer, StateKillableTimer}, WakeTimeout)
}

// wake runs spec.md §4.4's six-step wake protocol, restricted to the
// given source states (the "wake only if current state matches" variants
// share this body; plain Wakeup passes every sleeping state).
func (s *Scheduler) wake(p *Proc, from []ProcState, reason WakeReason) bool {
	se := p.se
	start := time.Time{}
	if s.metrics != nil {
		start = s.timeNow()
	}

	se.piLock.Lock()
	defer se.piLock.Unlock()

	// Step 1: fast path, already runnable.
	if se.OnRQ() {
		return false
	}

	// Step 2: read barrier is implicit in Go's atomic ops; step 3: spin
	// until the target has finished context-switching itself out.
	SpinUntilAcquire(func() bool { return !se.OnCPU() })

	// Step 4: CAS the source state to WAKENING, serializing concurrent wakers.
	if !p.state.TransitionAny(from, StateWakening) {
		return false
	}

	se.setWakeReason(reason)

	// Step 5: release-store RUNNING.
	p.state.Store(StateRunning)

	s.clearChannelWait(p)

	// Step 6: enqueue unless the race-fix path in contextSwitchFinish
	// already claimed on_rq.
	s.enqueueWoken(se)

	if s.metrics != nil {
		s.metrics.recordWake(s.timeNow().Sub(start))
	}
	return true
}

// WakeupSelf implements spec.md §4.4 "Wake (target = self)": called from
// an interrupt handler that already runs as the process being woken. Only
// CASes state; the race-fix path in contextSwitchFinish enqueues it if
// needed once it actually yields.
func (s *Scheduler) WakeupSelf(p *Proc) bool {
	return p.state.TransitionAny(sleepingStates, StateRunning)
}

// enqueueWoken picks a target CPU via the entity's class and CASes on_rq,
// enqueuing on success. A CAS failure means contextSwitchFinish's race-fix
// path (spec.md §4.4 step e) already did it concurrently.
func (s *Scheduler) enqueueWoken(se *SchedEntity) {
	if !se.onRQ.CompareAndSwap(false, true) {
		return
	}
	target := se.class.SelectTaskRQ(se, s.cpus)
	targetCPU := s.cpus.CPU(target)
	targetRQ := targetCPU.RunQueue(se.class)
	targetRQ.Lock.Lock()
	targetRQ.Class().Enqueue(targetRQ, se)
	depth := targetRQ.TaskCount()
	targetRQ.Lock.Unlock()
	if s.metrics != nil {
		s.metrics.recordDepth(target, se.class.ID(), depth)
	}
}

// clearChannelWait detaches p from the channel wait table if it is
// currently parked on one, so a stale entry doesn't accumulate once p has
// been individually woken (e.g. by signal_notify rather than
// wakeup_on_chan).
func (s *Scheduler) clearChannelWait(p *Proc) {
	p.Lock.Lock()
	ch := p.onChan
	if ch != nil {
		p.onChan = nil
		p.flags.Clear(FlagOnChan)
	}
	p.Lock.Unlock()
	if ch != nil {
		s.channels.unregister(ch, p)
	}
}

// Stop implements spec.md §4.4 "Stop (SIGSTOP equivalent)". If p is
// currently sleeping in an interruptible variant, it transitions directly
// to STOPPED (there is no rq entry to remove, since a sleeper is never
// linked into one). If p is RUNNING, a stop is requested via
// FlagStopPending and, when an IPISender is configured, an IPI nudges the
// target to observe it at its next safe point (spec.md §5 "IPIs"); the
// actual transition to STOPPED happens through the signal-delivery loop
// (HandleSignal) the next time that process reaches a trap-return
// checkpoint. Idempotent: calling Stop on an already-STOPPED process is a
// no-op (spec.md §8 property 8).
func (s *Scheduler) Stop(p *Proc) {
	se := p.se
	se.piLock.Lock()
	defer se.piLock.Unlock()

	if p.State() == StateStopped {
		return
	}

	p.flags.Set(FlagStopPending)

	cur := p.State()
	switch {
	case cur.IsSleeping() && cur != StateUninterruptible:
		if p.state.TryTransition(cur, StateStopped) {
			p.flags.Clear(FlagStopPending)
		}
	case cur == StateRunning && s.ipi != nil:
		_ = s.ipi.SendSingle(int(se.CPUID()), IPIReasonSignalStop)
	}
}

// Continue implements spec.md §4.4 "Continue (SIGCONT equivalent)": clears
// a pending stop request, and if the process had actually reached STOPPED,
// transitions it back to RUNNING and re-enqueues it (the wake path's step
// 6). Idempotent for the same reason as Stop.
func (s *Scheduler) Continue(p *Proc) {
	se := p.se
	se.piLock.Lock()
	defer se.piLock.Unlock()

	p.flags.Clear(FlagStopPending)

	if p.State() != StateStopped {
		return
	}

	SpinUntilAcquire(func() bool { return !se.OnCPU() })

	if p.state.TryTransition(StateStopped, StateRunning) {
		s.enqueueWoken(se)
	}
}
