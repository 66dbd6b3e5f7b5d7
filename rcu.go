package sched

import "sync"

// This file backs spec.md §5 "RCU": read-side critical sections are
// entered/exited by incrementing/decrementing a nesting counter kept per
// CPU (CPU.rcuNesting), not per process; grace periods are observed at
// context-switch points (a CPU whose counter is zero there is in a
// quiescent state). PCB teardown uses RCU-deferred free so no concurrent reader holds a
// stale pointer — per spec.md §9 Open Question 2, the callback must operate
// only on values snapshotted before it was scheduled, since the real
// callback would be freeing the very kernel stack the PCB lives on.

// rcuHead carries the deferred-free callback for one PCB. It is populated
// by freeProc (lifecycle.go) once a zombie's exit status has been harvested
// by wait() and nothing should dereference the PCB again.
type rcuHead struct {
	callback func()
}

// RCUReadLock marks the start of a read-side critical section on c.
func (c *CPU) RCUReadLock() { c.rcuNesting.Add(1) }

// RCUReadUnlock marks the end of a read-side critical section.
func (c *CPU) RCUReadUnlock() {
	if c.rcuNesting.Add(-1) < 0 {
		invariant("RCU nesting counter went negative on cpu %d", c.id)
	}
}

// quiescent reports whether this CPU is currently outside any RCU read-side
// critical section — called at every context switch per the contract above.
func (c *CPU) quiescent() bool { return c.rcuNesting.Load() == 0 }

// RCUDomain batches deferred frees observed across all CPUs and reaps them
// at the first SynchronizeOnQuiescence call that finds every CPU's nesting
// counter at zero. This is a cooperative, single-grace-period-generation model:
// adequate for the test scenarios in spec.md §8, not a production reclaimer.
type RCUDomain struct {
	cpus *CPUTable

	mu      sync.Mutex
	pending []*Proc
}

// NewRCUDomain creates a domain tracking quiescent states across cpus.
func NewRCUDomain(cpus *CPUTable) *RCUDomain {
	return &RCUDomain{cpus: cpus}
}

// CallRCU defers p's callback until the next grace period completes.
func (d *RCUDomain) CallRCU(p *Proc) {
	d.mu.Lock()
	d.pending = append(d.pending, p)
	d.mu.Unlock()
}

// SynchronizeOnQuiescence runs every pending callback if, at the moment of
// the call, every CPU's nesting counter is zero, and runs none otherwise.
// contextSwitchFinish (contextswitch.go) calls this after each context
// switch. Safe to call
// concurrently from every CPU's own goroutine: the pending list and its
// drain are serialized by d.mu, independent of any single CPU's rq lock.
func (d *RCUDomain) SynchronizeOnQuiescence() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) == 0 {
		return
	}
	for _, cpu := range d.cpus.cpus {
		if !cpu.quiescent() {
			return
		}
	}
	pending := d.pending
	d.pending = nil
	for _, p := range pending {
		if p.rcuHead.callback != nil {
			p.rcuHead.callback()
		}
	}
}
