package sched

import "time"

// This file implements the hardest subsystem in the design (spec.md §4.4):
// the voluntary-yield path and its context_switch_finish race-fix, modeled
// on Linux's try_to_wake_up. There is deliberately no goroutine-level stack
// swap here — per spec.md §9 "Async-like control flow", the contract is
// that execution resumes on the same logical stack after wake, which in
// this simulation means the calling goroutine blocks on a channel receive
// rather than yielding a real CPU register set. What must NOT be
// approximated is the memory-ordering contract around on_rq/on_cpu; that is
// reproduced exactly.

// Yield performs a voluntary context switch away from se, per spec.md §4.4
// steps 1-8. Caller must already have written se's desired sleeping state
// (or left it RUNNING, for a plain preemption-point yield) before calling.
// Interrupts-disabled is modeled by the caller holding no locks this
// function doesn't expect; there is no separate IRQ-disable primitive in
// this simulation.
func (s *Scheduler) Yield(cpu *CPU, se *SchedEntity) {
	var start time.Time
	if s.metrics != nil {
		start = s.timeNow()
	}

	s.advanceTimers()

	rq, next := s.pickNextLocked(cpu)

	next.onRQ.Store(false)
	next.onCPU.Store(true)
	next.cpuID.Store(int32(cpu.id))
	cpu.current.Store(next)

	rq.Lock.Unlock()

	if next != se {
		// Grant next's dispatch permit before finishing se's own bookkeeping:
		// the two entities' resume channels are independent, so there is no
		// ordering hazard in handing off next's turn first.
		s.resumeEntity(next)
	}

	s.contextSwitchFinish(cpu, se)

	if s.metrics != nil {
		s.metrics.recordContextSwitch(s.timeNow().Sub(start))
	}

	if next != se {
		s.waitForResume(se)
	}
}

// pickNextLocked consults the two-layer ready mask, selects the highest
// priority non-empty rq, and calls PickNext/SetNext on it (spec.md §4.4
// step 5). Returns the rq still locked (caller unlocks after updating
// next's flags) and the chosen entity. Falls back to the CPU's idle entity
// if nothing is ready.
func (s *Scheduler) pickNextLocked(cpu *CPU) (*RunQueue, *SchedEntity) {
	major, ok := cpu.mask.Lookup()
	if !ok {
		rq := cpu.RunQueue(s.classes[ClassIdle])
		rq.Lock.Lock()
		next := rq.Class().PickNext(rq)
		rq.Class().SetNext(rq, next)
		return rq, next
	}
	class := s.classForMajor(major)
	rq := cpu.RunQueue(class)
	rq.Lock.Lock()
	next := rq.Class().PickNext(rq)
	if next == nil {
		// Ready mask said non-empty but the entity was already claimed by a
		// racing pick on another path; fall back to idle rather than panic,
		// since select_task_rq callers retry.
		rq.Lock.Unlock()
		idleRQ := cpu.RunQueue(s.classes[ClassIdle])
		idleRQ.Lock.Lock()
		idle := idleRQ.Class().PickNext(idleRQ)
		idleRQ.Class().SetNext(idleRQ, idle)
		return idleRQ, idle
	}
	rq.Class().SetNext(rq, next)
	return rq, next
}

func (s *Scheduler) classForMajor(major uint8) SchedClass {
	switch {
	case major == MajorIdle:
		return s.classes[ClassIdle]
	case major == MajorExit:
		return s.classes[ClassExit]
	default:
		return s.classes[ClassFIFO]
	}
}

// contextSwitchFinish runs context_switch_finish(prev) from spec.md §4.4
// steps a-g, on behalf of prev, as the entity that just became current.
func (s *Scheduler) contextSwitchFinish(cpu *CPU, prev *SchedEntity) {
	prevProc := prev.proc
	state := prevProc.state.Load() // (a) re-read prev.state with full ordering

	rq := s.rqForEntity(cpu, prev)
	didEnqueue := false

	var depth int
	switch {
	case state == StateRunning:
		// (b) still runnable: class put_prev re-adds it, then on_rq=1.
		rq.Class().PutPrev(rq, prev)
		prev.onRQ.Store(true)
		didEnqueue = true
		depth = rq.TaskCount()
	case state.IsSleeping() || state == StateStopped:
		// (c) sleeping/stopped: dequeue if it was still linked somewhere.
		if prev.rq != nil {
			prev.rq.Class().Dequeue(prev.rq, prev)
		}
	}

	rq.Lock.Unlock() // (d)

	if didEnqueue && s.metrics != nil {
		s.metrics.recordDepth(rq.cpuID, rq.classID, depth)
	}

	if !didEnqueue && state != StateZombie && state != StateStopped {
		// (e) race-fix path.
		state = prevProc.state.Load()
		if state == StateRunning {
			if prev.onRQ.CompareAndSwap(false, true) {
				target := prev.class.SelectTaskRQ(prev, s.cpus)
				targetCPU := s.cpus.CPU(target)
				targetRQ := targetCPU.RunQueue(prev.class)
				targetRQ.Lock.Lock()
				targetRQ.Class().Enqueue(targetRQ, prev)
				raceDepth := targetRQ.TaskCount()
				targetRQ.Lock.Unlock()
				if s.metrics != nil {
					s.metrics.recordRaceFixEnqueue()
					s.metrics.recordDepth(target, prev.class.ID(), raceDepth)
				}
			}
			// CAS failure: a concurrent waker already enqueued it.
		}
	}

	prev.onCPU.Store(false) // (f) on_rq set strictly before on_cpu cleared

	// (g) this CPU is quiescent if its RCU nesting counter is zero here;
	// SynchronizeOnQuiescence reads that counter directly.
	if s.rcu != nil {
		s.rcu.SynchronizeOnQuiescence()
	}
}

// rqForEntity returns the rq se was linked into before this switch began.
// If se had no rq (e.g. it is being context-switched for the first time),
// the current CPU's class rq is used as the lock to hold across the
// decision, matching "Under the rq lock still held from step 3" in spec.md
// §4.4.
func (s *Scheduler) rqForEntity(cpu *CPU, se *SchedEntity) *RunQueue {
	if se.rq != nil {
		se.rq.Lock.Lock()
		return se.rq
	}
	rq := cpu.RunQueue(se.class)
	rq.Lock.Lock()
	return rq
}

func (s *Scheduler) advanceTimers() {
	if s.timerTick != nil {
		s.timerTick()
	}
}

// waitForResume blocks the calling goroutine until se is rescheduled,
// modeling "execution resumes on the same stack" without an actual register
// swap.
func (s *Scheduler) waitForResume(se *SchedEntity) {
	<-se.resume
}

// resumeEntity grants se's dispatch permit: the counterpart to
// waitForResume, called once per Yield by whichever CPU's pickNextLocked
// chose se as next. The channel's capacity-1 buffer means this never blocks
// and never has to know whether se's goroutine is already parked in
// waitForResume or arrives there afterward.
func (s *Scheduler) resumeEntity(se *SchedEntity) {
	select {
	case se.resume <- struct{}{}:
	default:
		// A permit is already pending; se has not collected its previous
		// turn yet, which should not happen for a well-formed scheduling
		// sequence (an entity is never picked as next twice before it runs),
		// but silently coalescing beats deadlocking the picker.
	}
}
