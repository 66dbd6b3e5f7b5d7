package sched

// This file implements spec.md §4.5's process-lifecycle glue: fork, exit,
// wait, and kernel-thread creation, plus the RCU-deferred PCB free that
// backs wait()'s reap step. Each of a process's "user code" is modeled by a
// plain goroutine that blocks in waitForResume for its turn, the same
// mechanism contextswitch.go uses for every other entity — there is no
// separate execution model for lifecycle-spawned processes.

// KernelProcCreate implements spec.md §6's kernel_proc_create(name, entry,
// arg1, arg2): allocates a PCB with no user VM, inheriting init's fs state,
// in UNINTERRUPTIBLE (spec.md §4.5: "Its initial state is UNINTERRUPTIBLE;
// the caller wakes it."). entry runs on its own goroutine once the caller
// wakes it and the scheduler picks it for the first time.
func (s *Scheduler) KernelProcCreate(name string, prio Priority, affinity CPUMask, entry func(p *Proc, arg1, arg2 any), arg1, arg2 any) (*Proc, error) {
	p := NewKernelProc(0, name, prio, affinity, cloneFS(s.initFS))
	if _, err := s.procs.Allocate(p); err != nil {
		return nil, err
	}
	p.se.SetClass(s.classes[s.classIDForPriority(prio)])
	p.flags.Set(FlagValid)

	p.parent = s.initProc
	if s.initProc != nil {
		s.initProc.Lock.Lock()
		s.initProc.children = append(s.initProc.children, p)
		s.initProc.Lock.Unlock()
	}

	go func() {
		s.waitForResume(p.se)
		entry(p, arg1, arg2)
	}()

	return p, nil
}

// Fork implements spec.md §4.5 "Fork": copies the parent's VM (if it has
// one), shares the parent's sigacts with the child by taking a reference,
// clones the fd table, attaches the child to the parent's
// process tree, sets it UNINTERRUPTIBLE, and wakes it — matching spec.md §8
// property 9's "fork returns pid > 0 in parent, and wait() later reports
// that pid with the child's own exit status".
//
// Fork takes no clone flags, so parent and child always share one sigacts
// table; it deep-copies the table only when Share fails because the
// parent's table is already being torn down (refcount zero).
//
// A real fork() duplicates the caller's entire call stack, so the child
// resumes "mid-function" with its own copy of every kernel local, and the
// one call returns twice. Nothing in Go lets this simulation duplicate a
// goroutine's stack, so childEntry stands in for that second return: it is
// the code the child runs once first scheduled, in place of "returns 0 from
// fork() and falls through into whatever the parent was doing". childEntry
// must eventually call Exit (directly or via HandleSignal) on the child's
// own behalf, the same contract as a KernelProcCreate entry point; it may
// call s.CurrentCPU(child.SE()) to learn which CPU it has been scheduled
// onto, since affinity alone doesn't pin a single-CPU answer in general.
func (s *Scheduler) Fork(parent *Proc, childEntry func(child *Proc)) (*Proc, error) {
	parent.Lock.Lock()
	prio := parent.se.Priority()
	affinity := parent.se.Affinity()
	userSpace := parent.flags.Test(FlagUserSpace)
	parentVM := parent.vm
	parentFDs := parent.fds
	parent.Lock.Unlock()

	child := NewKernelProc(0, parent.name, prio, affinity, cloneFS(parent.fs))
	if _, err := s.procs.Allocate(child); err != nil {
		return nil, err
	}
	child.se.SetClass(parent.se.Class())
	child.flags.Set(FlagValid)

	if userSpace && parentVM != nil {
		child.flags.Set(FlagUserSpace)
		child.vm = parentVM.Copy()
	}

	oldSigActs := child.sigActs
	if parent.sigActs.Share() {
		child.sigActs = parent.sigActs
	} else {
		child.sigActs = parent.sigActs.Clone()
	}
	oldSigActs.Put()

	if parentFDs != nil {
		child.fds = parentFDs.Clone()
	}

	child.parent = parent
	parent.Lock.Lock()
	parent.children = append(parent.children, child)
	parent.Lock.Unlock()

	go func() {
		s.waitForResume(child.se)
		if childEntry != nil {
			childEntry(child)
		}
	}()

	s.Wakeup(child)
	return child, nil
}

// Exit implements spec.md §4.5 "Exit": releases fds/fs, reparents children
// to init, records the exit status and terminating signal (0 if exit() was
// explicit), enters ZOMBIE, wakes any parent blocked in Wait, and yields the
// CPU one last time — cpu's Yield never returns to this goroutine again,
// the same way a real kernel never switches back to an exited task's stack.
func (s *Scheduler) Exit(cpu *CPU, p *Proc, status int32, reasonSig Signal) {
	if p.fds != nil {
		p.fds.CloseAll()
		p.fds.Put()
	}
	if p.fs != nil {
		p.fs.Put()
	}

	p.Lock.Lock()
	p.state.Store(StateExiting)
	children := p.children
	p.children = nil
	p.Lock.Unlock()

	if s.initProc != nil {
		for _, c := range children {
			c.Lock.Lock()
			c.parent = s.initProc
			c.Lock.Unlock()
			s.initProc.Lock.Lock()
			s.initProc.children = append(s.initProc.children, c)
			s.initProc.Lock.Unlock()
		}
	}

	p.exitStatus.Store(status)
	p.reasonSig = reasonSig
	p.state.Store(StateZombie)
	close(p.waitChan)

	if parent := p.Parent(); parent != nil {
		s.WakeupOnChan(parent)
	}

	s.Yield(cpu, p.se)
}

// Wait implements spec.md §4.5 "Wait": scans parent's children for a
// zombie, reaps the first one found (detaching it from parent's children,
// then waiting until it is fully off-CPU before freeing it), or sleeps on the parent's own pointer as a channel value
// until exit() wakes it. Returns ErrNoSuchProcess if parent has no children
// at all, matching a childless waitpid's ECHILD.
func (s *Scheduler) Wait(cpu *CPU, parent *Proc) (PID, int32, error) {
	for {
		parent.Lock.Lock()
		var zombie *Proc
		for _, c := range parent.children {
			if c.State() == StateZombie {
				zombie = c
				break
			}
		}
		if zombie == nil {
			if len(parent.children) == 0 {
				parent.Lock.Unlock()
				return 0, 0, ErrNoSuchProcess
			}
			s.SleepOnChan(cpu, parent, parent, &parent.Lock, StateInterruptible)
			parent.Lock.Unlock()
			continue
		}
		for i, c := range parent.children {
			if c == zombie {
				parent.children = append(parent.children[:i], parent.children[i+1:]...)
				break
			}
		}
		parent.Lock.Unlock()

		SpinUntilAcquire(func() bool { return !zombie.se.OnCPU() })
		pid := zombie.PID()
		status := zombie.ExitStatus()
		s.freeProc(zombie)
		return pid, status, nil
	}
}

// freeProc implements the RCU-deferred free spec.md §9 Open Question 2
// calls for: everything freeProc's callback needs is snapshotted into local
// variables (just the pid, here) before scheduling it, since the real
// callback frees the kernel stack the PCB itself would otherwise live on.
func (s *Scheduler) freeProc(p *Proc) {
	if p.sigActs != nil {
		p.sigActs.Put()
	}
	if p.vm != nil {
		p.vm.Put()
	}
	pid := p.PID()
	p.rcuHead.callback = func() {
		s.procs.Remove(pid)
	}
	s.rcu.CallRCU(p)
}

// cloneFS clones fs, tolerating a nil collaborator (no WithInitFS configured)
// rather than panicking on a nil-interface method call — fs is genuinely
// optional per spec.md §6's fs/fd contracts being "external collaborators".
func cloneFS(fs FSState) FSState {
	if fs == nil {
		return nil
	}
	return fs.Clone()
}

// classIDForPriority maps a priority to the class that owns its major range,
// the same boundaries classForMajor uses during context-switch pick_next.
func (s *Scheduler) classIDForPriority(prio Priority) ClassID {
	switch {
	case prio.IsIdle():
		return ClassIdle
	case prio.IsExit():
		return ClassExit
	default:
		return ClassFIFO
	}
}
