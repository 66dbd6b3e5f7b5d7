package sched

import (
	"sync/atomic"
)

// WakeReason is passed to a sleeper via its SE's wakeup-data slot so it can
// distinguish why it was woken, per spec.md §5.
type WakeReason int32

const (
	WakeNormal      WakeReason = 0
	WakeInterrupted WakeReason = -1 // -EINTR equivalent
	WakeTimeout     WakeReason = -2
)

// SchedEntity is the per-process scheduling record described in spec.md §3:
// a back-pointer to its process, the rq it is currently linked into (if
// any), its class, priority, CPU affinity, the on_rq/on_cpu flag pair and
// their ordering contract (§4.3), a last-CPU hint, a pi_lock serializing the
// wake protocol, and class-specific linkage storage.
type SchedEntity struct {
	proc  *Proc
	class SchedClass

	priority Priority
	affinity CPUMask

	// rq is non-owning; its validity is guaranteed by per-CPU rq existence
	// being static after boot (spec.md §9).
	rq *RunQueue

	// onRQ and onCPU are accessed per the contract in spec.md §4.3: onRQ is
	// written only under the owning rq's spinlock, or via CAS from the
	// context-switch race-fix path; onCPU is release-stored and acquire-spun
	// on by wakers. They are intentionally two separate words rather than
	// packed into one, since the race-fix path CASes onRQ independently of
	// onCPU.
	onRQ  atomic.Bool
	onCPU atomic.Bool

	cpuID  atomic.Int32 // last-CPU hint; -1 if never scheduled
	piLock Spinlock

	// wakeReason is set by the waker before the sleeper is made runnable and
	// read by the sleeper once it resumes.
	wakeReason atomic.Int32

	// link is the class-specific linkage: a doubly-linked-list node for
	// FIFO, unused for IDLE. Classes with ordered-tree linkage would swap
	// this out; only FIFO/IDLE exist here (spec.md §9 "deep/virtual
	// inheritance" resolved as an interface with one implementor per
	// class).
	link fifoLink

	// resume stands in for "execution resumes on the same stack" (spec.md
	// §9): a buffered, capacity-1 permit channel. The goroutine that
	// voluntarily yielded blocks receiving from it in waitForResume; Yield
	// sends the permit to whichever entity pickNextLocked chooses as next,
	// the same way a real dispatcher restores the next task's context.
	// Capacity 1 means the permit can be granted before the receiver has
	// arrived to collect it, with no race: unlike a lazily-allocated
	// close-once channel, a send never has to observe whether anyone is
	// listening yet.
	resume chan struct{}
}

// NewSchedEntity creates a detached entity at the given priority with the
// given affinity, owned by proc.
func NewSchedEntity(proc *Proc, prio Priority, affinity CPUMask) *SchedEntity {
	se := &SchedEntity{
		proc:     proc,
		priority: prio,
		affinity: affinity,
		resume:   make(chan struct{}, 1),
	}
	se.cpuID.Store(-1)
	return se
}

// OnRQ reports whether the entity is currently linked into some rq, with
// acquire ordering (the ordering wakers rely on per spec.md §5).
func (se *SchedEntity) OnRQ() bool { return se.onRQ.Load() }

// OnCPU reports whether the entity is currently executing, with acquire
// ordering.
func (se *SchedEntity) OnCPU() bool { return se.onCPU.Load() }

// Priority returns the entity's current scheduling priority.
func (se *SchedEntity) Priority() Priority { return se.priority }

// SetPriority updates the entity's priority. Callers must not call this
// while the entity is linked into an rq; reprioritizing a queued entity
// requires dequeue-then-enqueue so the rq's sub-queue and ready mask stay
// consistent.
func (se *SchedEntity) SetPriority(p Priority) {
	if se.OnRQ() {
		invariant("SetPriority called on an enqueued entity")
	}
	se.priority = p
}

// Class returns the entity's scheduling class, or nil if it has not been
// assigned one yet (before the first enqueue).
func (se *SchedEntity) Class() SchedClass { return se.class }

// SetClass assigns se's scheduling class. Callers must not call this while
// the entity is linked into an rq, for the same reason as SetPriority.
func (se *SchedEntity) SetClass(c SchedClass) {
	if se.OnRQ() {
		invariant("SetClass called on an enqueued entity")
	}
	se.class = c
}

// Affinity returns the entity's CPU affinity mask.
func (se *SchedEntity) Affinity() CPUMask { return se.affinity }

// CPUID returns the last-CPU hint, or -1 if the entity has never run.
func (se *SchedEntity) CPUID() int32 { return se.cpuID.Load() }

// WakeReason returns the reason code left by the most recent waker.
func (se *SchedEntity) WakeReason() WakeReason { return WakeReason(se.wakeReason.Load()) }

func (se *SchedEntity) setWakeReason(r WakeReason) { se.wakeReason.Store(int32(r)) }
