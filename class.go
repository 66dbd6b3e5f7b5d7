package sched

// ClassID names a registered scheduling class.
type ClassID uint8

const (
	ClassFIFO ClassID = iota
	ClassIdle
	ClassExit
)

// SchedClass is the scheduling-class vtable from spec.md §4.2/§9: "Represent
// sched_class as a vtable of function pointers... the preferred strategy in
// a systems language: an interface/trait abstraction with one implementor
// per class." Enqueue/Dequeue mutate the rq; PickNext chooses without
// removing; SetNext performs the removal and marks the choice as current;
// PutPrev re-inserts a previously-running entity. Splitting selection from
// removal lets the context-switch protocol (contextswitch.go) observe them
// as separate steps, per §4.2.
type SchedClass interface {
	ID() ClassID

	// Enqueue links se into rq. Caller holds rq's spinlock.
	Enqueue(rq *RunQueue, se *SchedEntity)

	// Dequeue unlinks se from rq. Caller holds rq's spinlock.
	Dequeue(rq *RunQueue, se *SchedEntity)

	// PickNext returns the entity that would run next without removing it,
	// or nil if rq is empty. Caller holds rq's spinlock.
	PickNext(rq *RunQueue) *SchedEntity

	// SetNext removes se (previously returned by PickNext) from rq and
	// marks it as the entity that will run next. Caller holds rq's
	// spinlock.
	SetNext(rq *RunQueue, se *SchedEntity)

	// PutPrev re-inserts an entity that was running and remains runnable.
	// Caller holds rq's spinlock.
	PutPrev(rq *RunQueue, se *SchedEntity)

	// SelectTaskRQ picks the CPU a waking or forking entity should run on,
	// consulting affinity and the active CPU mask.
	SelectTaskRQ(se *SchedEntity, cpus *CPUTable) int

	// TaskTick is an optional per-tick hook; classes with nothing to do on
	// tick (IDLE) may no-op.
	TaskTick(se *SchedEntity)

	// TaskFork is an optional fork hook, invoked with the new child's
	// entity before it is first enqueued.
	TaskFork(se *SchedEntity)

	// TaskDead is an optional hook invoked once an entity's owning process
	// has become a zombie, before the PCB is freed.
	TaskDead(se *SchedEntity)

	// Yield is an optional hook giving the class a chance to reorder its
	// own queue on a voluntary yield (FIFO has nothing extra to do here
	// beyond the context-switch protocol's put_prev/enqueue).
	Yield(rq *RunQueue, se *SchedEntity)
}
