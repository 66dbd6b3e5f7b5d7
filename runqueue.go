package sched

import "sync/atomic"

// RunQueue is the per-(CPU, class) container from spec.md §3: a class
// pointer, class id, CPU id, task count, and the spinlock ordering every
// enqueue/dequeue against it. Each class extends this with its own ordered
// container, kept inline below (FIFO's in fifo, IDLE's in idleEntity).
type RunQueue struct {
	class   SchedClass
	classID ClassID
	cpuID   int

	taskCount atomic.Int64

	Lock Spinlock

	// fifo holds one fifoSubQueues per major priority level FIFO serves.
	// Unused by other classes. Kept inline rather than as a separate type
	// behind an interface{} cast, since FIFO is the only class with
	// nontrivial internal structure.
	fifo fifoBuckets

	// idleEntity is IDLE's single resident entity. Unused by other
	// classes.
	idleEntity *SchedEntity
}

func newRunQueue(class SchedClass, cpuID int) *RunQueue {
	return &RunQueue{class: class, classID: class.ID(), cpuID: cpuID}
}

// Class returns the scheduling class that owns this run queue.
func (rq *RunQueue) Class() SchedClass { return rq.class }

// ClassID returns the class id.
func (rq *RunQueue) ClassID() ClassID { return rq.classID }

// CPUID returns the CPU this run queue belongs to.
func (rq *RunQueue) CPUID() int { return rq.cpuID }

// TaskCount returns the number of entities currently queued.
func (rq *RunQueue) TaskCount() int { return int(rq.taskCount.Load()) }

func (rq *RunQueue) incTaskCount() { rq.taskCount.Add(1) }
func (rq *RunQueue) decTaskCount() { rq.taskCount.Add(-1) }
