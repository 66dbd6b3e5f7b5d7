package sched

// IdleClass implements the IDLE scheduling class from spec.md §4.2: a
// single-entity rq that is always considered ready, whose enqueue/dequeue
// are only ever invoked once per CPU at boot.
type IdleClass struct{}

func (IdleClass) ID() ClassID { return ClassIdle }

// Enqueue installs se as the rq's resident idle entity. Called exactly once
// per CPU, during scheduler_init.
func (IdleClass) Enqueue(rq *RunQueue, se *SchedEntity) {
	if rq.idleEntity != nil {
		invariant("idle rq on cpu %d already has an idle entity", rq.cpuID)
	}
	rq.idleEntity = se
	se.rq = rq
	rq.incTaskCount()
}

// Dequeue is never expected to be called for IDLE in normal operation; it
// exists only to satisfy the interface.
func (IdleClass) Dequeue(rq *RunQueue, se *SchedEntity) {
	if rq.idleEntity == se {
		rq.idleEntity = nil
		rq.decTaskCount()
	}
}

// PickNext always returns the resident idle entity: the idle rq is always
// ready.
func (IdleClass) PickNext(rq *RunQueue) *SchedEntity { return rq.idleEntity }

func (IdleClass) SetNext(rq *RunQueue, se *SchedEntity) {}
func (IdleClass) PutPrev(rq *RunQueue, se *SchedEntity) {}
func (IdleClass) Yield(rq *RunQueue, se *SchedEntity)   {}
func (IdleClass) TaskTick(se *SchedEntity)              {}
func (IdleClass) TaskFork(se *SchedEntity)              {}
func (IdleClass) TaskDead(se *SchedEntity)              {}

// SelectTaskRQ is never meaningfully consulted for the idle entity — it
// never migrates — but returns its pinned CPU for completeness.
func (IdleClass) SelectTaskRQ(se *SchedEntity, cpus *CPUTable) int {
	return int(se.CPUID())
}
