package sched

// This file implements spec.md §4.5's signal-delivery surface:
// signal_send/kill_proc (sending) and handle_signal (delivery at trap
// return), wired to the wake/stop/continue protocols in wake.go and the
// frame push/pop in frame.go.

// SignalSend implements spec.md §4.5 "Sending": looks up the target under
// the process table (the RCU-protected read path spec.md §9 calls for),
// queues or flags the signal under sigacts' lock, and triggers whichever of
// stop/continue/termination/wake the signal's class requires.
func (s *Scheduler) SignalSend(targetPID PID, sender PID, signo Signal, payload any) error {
	if signo <= 0 || int(signo) >= NSIG {
		return WrapError("SignalSend", ErrInvalidArgument)
	}
	target := s.procs.Lookup(targetPID)
	if target == nil {
		return WrapError("SignalSend", ErrNoSuchProcess)
	}
	return s.deliverTo(target, sender, signo, payload)
}

// KillProc implements spec.md §6's kill_proc(p, signo): raise signo against
// an already-resolved *Proc, skipping the pid lookup SignalSend does.
func (s *Scheduler) KillProc(p *Proc, signo Signal) error {
	return s.deliverTo(p, 0, signo, nil)
}

func (s *Scheduler) deliverTo(target *Proc, sender PID, signo Signal, payload any) error {
	bit := uint32(1) << uint(signo)
	sa := target.sigActs

	sa.Lock.Lock()
	if sa.sigignoreMask()&bit != 0 {
		sa.Lock.Unlock()
		return nil
	}

	act := sa.Action(signo)
	if act.SigInfo {
		target.pending.Enqueue(signo, KSigInfo{Signo: signo, Sender: sender, Payload: payload})
	} else {
		target.pending.SetNonQueued(signo)
	}
	blocked := sa.Blocked()
	target.recalcSigPending(blocked)

	isStop := sa.sigstopMask()&bit != 0 && blocked&bit == 0
	isCont := sa.sigcontMask()&bit != 0 && blocked&bit == 0
	isTerm := sa.sigtermMask()&bit != 0
	sa.Lock.Unlock()

	switch {
	case isStop:
		// scheduler_stop already distinguishes INTERRUPTIBLE (direct
		// transition) from RUNNING (IPI), matching spec.md §4.5's "depending
		// on current state, wake the target from INTERRUPTIBLE or send an
		// IPI so it processes the stop promptly".
		s.Stop(target)
	case isCont:
		s.Continue(target)
	case isTerm:
		target.flags.Set(FlagKilled)
		if target.State() == StateStopped {
			s.Continue(target)
		}
	}

	if target.flags.Test(FlagSigPending) {
		s.signalNotify(target)
	}
	return nil
}

// signalNotify wakes target if it is in a signal-interruptible sleep, or
// pokes a running target via IPI so it observes SIGPENDING at its next
// interruption boundary, per spec.md §4.4 "Cancellation / interruption".
func (s *Scheduler) signalNotify(p *Proc) {
	switch p.State() {
	case StateInterruptible:
		s.WakeupInterruptible(p)
	case StateKillable, StateKillableTimer:
		p.sigActs.Lock.Lock()
		killPending := p.pending.Mask()&(1<<uint(SIGKILL)) != 0
		p.sigActs.Lock.Unlock()
		if killPending {
			s.WakeupKillable(p)
		}
	case StateRunning:
		if s.ipi != nil {
			_ = s.ipi.SendSingle(int(p.se.CPUID()), IPIReasonSignalCheck)
		}
	}
}

// HandleSignal implements spec.md §4.5 "Delivery": called at trap return
// when SIGPENDING is set. Returns true if p was terminated (caller should
// not return to user mode; p is already a ZOMBIE). trap may be nil for a
// kernel thread with no user context — PushSignalFrame is then skipped and
// a signal with a DispHandler action is consumed without being delivered
// (no default action runs for it either), since there is no user frame to
// deliver into.
func (s *Scheduler) HandleSignal(cpu *CPU, p *Proc, vm VM, trap TrapFrame) bool {
	for {
		if !p.flags.Test(FlagSigPending) && !p.flags.Test(FlagKilled) {
			return false
		}

		sa := p.sigActs
		sa.Lock.Lock()
		blocked := sa.Blocked()

		if term := p.flags.Test(FlagKilled); term || p.pending.Mask()&sa.sigtermMask()&^blocked != 0 {
			signo := SIGKILL
			if m := p.pending.Mask() & sa.sigtermMask() &^ blocked; m != 0 {
				signo = lowestSignalIn(m)
			}
			sa.Lock.Unlock()
			s.Exit(cpu, p, 128+int32(signo), signo)
			return true
		}

		if cont := p.pending.Mask() & sa.sigcontMask() &^ blocked; cont != 0 {
			p.pending.ClearStopSignals(sa.sigstopMask())
			signo := lowestSignalIn(cont)
			act := sa.Action(signo)
			if act.SigInfo {
				p.pending.PopHead(signo)
			} else {
				p.pending.ClearNonQueued(signo)
			}
			p.recalcSigPending(blocked)
			sa.Lock.Unlock()
			if act.Disposition != DispHandler {
				continue
			}
			if !s.deliverToHandler(p, vm, trap, signo, act, blocked) {
				return false
			}
			continue
		}

		if stop := p.pending.Mask() & sa.sigstopMask() &^ blocked; stop != 0 {
			p.pending.ClearStopSignals(sa.sigstopMask())
			p.recalcSigPending(blocked)
			sa.Lock.Unlock()
			p.state.Store(StateStopped)
			s.Yield(cpu, p.se)
			continue
		}

		signo := p.pending.lowestPendingUnmasked(blocked)
		if signo < 0 {
			sa.Lock.Unlock()
			return false
		}
		act := sa.Action(signo)
		if act.SigInfo {
			p.pending.PopHead(signo)
		} else {
			p.pending.ClearNonQueued(signo)
		}
		p.recalcSigPending(blocked)
		sa.Lock.Unlock()

		if act.Disposition != DispHandler {
			continue
		}
		if !s.deliverToHandler(p, vm, trap, signo, act, blocked) {
			return false
		}
		return false
	}
}

// deliverToHandler runs spec.md §4.5 steps 2-3 for one signal already popped
// off the pending set: push the frame (user-space targets only), then
// re-acquire sigacts to install the handler's blocked mask and SA_RESETHAND.
// Returns false if there was no handler to actually deliver to (kernel
// thread, or a push failure), in which case the caller should stop looping.
func (s *Scheduler) deliverToHandler(p *Proc, vm VM, trap TrapFrame, signo Signal, act SigAction, oldMask uint32) bool {
	if !p.flags.Test(FlagUserSpace) || vm == nil || trap == nil {
		return false
	}
	if err := PushSignalFrame(p, vm, trap, act, oldMask); err != nil {
		return false
	}

	sa := p.sigActs
	sa.Lock.Lock()
	newBlocked := oldMask | act.Mask
	if !act.NoDefer {
		newBlocked |= 1 << uint(signo)
	}
	sa.SetBlocked(newBlocked)
	if act.ResetHand {
		sa.SetAction(signo, SigAction{Disposition: DispDefault})
	}
	sa.Lock.Unlock()
	p.recalcSigPending(newBlocked)
	return true
}

// lowestSignalIn returns the lowest-numbered set bit in mask as a Signal.
// Callers only pass masks already known to be non-zero.
func lowestSignalIn(mask uint32) Signal {
	for s := Signal(0); int(s) < NSIG; s++ {
		if mask&(1<<uint(s)) != 0 {
			return s
		}
	}
	return 0
}
