package sched

// ExitClass represents the EXIT_MAJOR_PRIORITY class (major=0), which
// spec.md §9 Open Question 4 describes as "reserved but whether it is armed
// in all builds is unclear; treat it as present-but-unused unless a test
// requires otherwise." It registers as a real class (so ClassExit is a
// legitimate ClassID and MajorExit priorities resolve to something), but
// every entry point that would queue or place an entity (Enqueue, Dequeue,
// SetNext, PutPrev, SelectTaskRQ) panics; PickNext returns nil and the
// optional hooks do nothing. Nothing in this design ever schedules an entity
// at major=0, and accepting one silently would hide a priority-assignment
// bug rather than surface it.
type ExitClass struct{}

func (ExitClass) ID() ClassID { return ClassExit }

func (ExitClass) Enqueue(rq *RunQueue, se *SchedEntity) {
	invariant("ExitClass.Enqueue: major=0 is reserved, never schedulable")
}

func (ExitClass) Dequeue(rq *RunQueue, se *SchedEntity) {
	invariant("ExitClass.Dequeue: major=0 is reserved, never schedulable")
}

func (ExitClass) PickNext(rq *RunQueue) *SchedEntity { return nil }

func (ExitClass) SetNext(rq *RunQueue, se *SchedEntity) {
	invariant("ExitClass.SetNext: major=0 is reserved, never schedulable")
}

func (ExitClass) PutPrev(rq *RunQueue, se *SchedEntity) {
	invariant("ExitClass.PutPrev: major=0 is reserved, never schedulable")
}

func (ExitClass) Yield(rq *RunQueue, se *SchedEntity) {}
func (ExitClass) TaskTick(se *SchedEntity)            {}
func (ExitClass) TaskFork(se *SchedEntity)            {}
func (ExitClass) TaskDead(se *SchedEntity)            {}

func (ExitClass) SelectTaskRQ(se *SchedEntity, cpus *CPUTable) int {
	invariant("ExitClass.SelectTaskRQ: major=0 is reserved, never schedulable")
	return -1
}
