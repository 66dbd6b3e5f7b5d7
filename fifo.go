package sched

import "math/bits"

// fifoLink is the intrusive doubly-linked-list node FIFO uses for its
// per-minor-priority sub-queues (spec.md §3 "FIFO rq": "four minor-priority
// sub-queues (unbounded FIFO lists)"). Storing the link inline on
// SchedEntity, rather than boxing entities into a separate list-node type,
// avoids an allocation on every enqueue — the same reasoning the teacher
// applies to its own intrusive task-queue chunks, just without the chunk
// pooling, since one node belongs to exactly one entity for its entire
// lifetime.
type fifoLink struct {
	next, prev *SchedEntity
}

// fifoSubQueues holds one major priority level's four minor-priority
// sub-queues and their 4-bit non-empty bitmask (spec.md §4.2).
type fifoSubQueues struct {
	head     [NumMinor]*SchedEntity
	tail     [NumMinor]*SchedEntity
	nonEmpty uint8 // bit i set iff sub-queue i is non-empty
}

// fifoBuckets holds one fifoSubQueues per major priority level (spec.md
// §4.2's "four minor-priority sub-queues" exist independently at every
// major; a task at major=2 and a task at major=50 never share a bucket, so
// the ready bitmap's notion of "which major is ready" and FIFO's notion of
// "what's at the head" stay in lockstep).
type fifoBuckets [NumMajor]fifoSubQueues

func (q *fifoSubQueues) pushTail(se *SchedEntity) {
	m := se.priority.Minor()
	se.link.prev = q.tail[m]
	se.link.next = nil
	if q.tail[m] != nil {
		q.tail[m].link.next = se
	} else {
		q.head[m] = se
	}
	q.tail[m] = se
	q.nonEmpty |= 1 << m
}

func (q *fifoSubQueues) unlink(se *SchedEntity) {
	m := se.priority.Minor()
	if se.link.prev != nil {
		se.link.prev.link.next = se.link.next
	} else {
		q.head[m] = se.link.next
	}
	if se.link.next != nil {
		se.link.next.link.prev = se.link.prev
	} else {
		q.tail[m] = se.link.prev
	}
	se.link.next, se.link.prev = nil, nil
	if q.head[m] == nil {
		q.nonEmpty &^= 1 << m
	}
}

// peekHead returns the head of the lowest-index non-empty sub-queue without
// removing it, per spec.md §4.2 "pick_next returns head of lowest-index
// non-empty sub-queue".
func (q *fifoSubQueues) peekHead() *SchedEntity {
	if q.nonEmpty == 0 {
		return nil
	}
	idx := bits.TrailingZeros8(q.nonEmpty)
	return q.head[idx]
}

// FIFOClass implements the FIFO scheduling class described in spec.md §4.2:
// push-to-tail enqueue, O(1) unlink dequeue keyed by minor priority, and a
// select_task_rq that prefers the current CPU and otherwise load-balances
// within affinity ∩ active CPUs.
type FIFOClass struct {
	cpus *CPUTable
}

// NewFIFOClass constructs the FIFO class bound to the given CPU table, used
// by SelectTaskRQ to consult active CPUs and per-CPU load.
func NewFIFOClass(cpus *CPUTable) *FIFOClass {
	return &FIFOClass{cpus: cpus}
}

func (c *FIFOClass) ID() ClassID { return ClassFIFO }

func (c *FIFOClass) Enqueue(rq *RunQueue, se *SchedEntity) {
	major := se.priority.Major()
	bucket := &rq.fifo[major]
	wasEmpty := bucket.nonEmpty == 0
	bucket.pushTail(se)
	rq.incTaskCount()
	se.rq = rq
	if wasEmpty {
		rq.CPU(c.cpus).mask.MarkReady(major)
	}
}

func (c *FIFOClass) Dequeue(rq *RunQueue, se *SchedEntity) {
	major := se.priority.Major()
	bucket := &rq.fifo[major]
	bucket.unlink(se)
	rq.decTaskCount()
	se.rq = nil
	if bucket.nonEmpty == 0 {
		rq.CPU(c.cpus).mask.MarkEmpty(major)
	}
}

// PickNext re-derives the ready major from the owning CPU's two-layer ready
// mask rather than trusting a caller-supplied value, since the mask is the
// single source of truth for "which major has ready work" and is exactly
// what pickNextLocked already consulted to route here in the first place.
func (c *FIFOClass) PickNext(rq *RunQueue) *SchedEntity {
	major, ok := rq.CPU(c.cpus).mask.Lookup()
	if !ok {
		return nil
	}
	return rq.fifo[major].peekHead()
}

func (c *FIFOClass) SetNext(rq *RunQueue, se *SchedEntity) {
	c.Dequeue(rq, se)
}

func (c *FIFOClass) PutPrev(rq *RunQueue, se *SchedEntity) {
	c.Enqueue(rq, se)
}

func (c *FIFOClass) Yield(rq *RunQueue, se *SchedEntity) {}

func (c *FIFOClass) TaskTick(se *SchedEntity) {}
func (c *FIFOClass) TaskFork(se *SchedEntity) {}
func (c *FIFOClass) TaskDead(se *SchedEntity) {}

// SelectTaskRQ returns se's last CPU (se.CPUID()) when that CPU is active
// and its whole FIFO run queue is empty. Otherwise it picks, among the CPUs
// in se's affinity mask intersected with the active CPU mask (or every
// active CPU if that intersection is empty), the one with the fewest queued
// FIFO tasks, lowest CPU id on ties. Both checks count a CPU's FIFO tasks
// across all majors and minors; they do not look at the sub-queue for se's
// own priority. The last-CPU shortcut does not consult se's affinity mask.
// With no candidate CPU at all it returns se.CPUID().
func (c *FIFOClass) SelectTaskRQ(se *SchedEntity, cpus *CPUTable) int {
	cur := int(se.CPUID())
	active := cpus.ActiveMask()
	if cur >= 0 && active.Has(cur) {
		curRQ := cpus.CPU(cur).RunQueue(c)
		if curRQ.TaskCount() == 0 {
			return cur
		}
	}

	candidates := se.Affinity() & active
	if candidates == 0 {
		candidates = active
	}

	best, bestLoad := -1, -1
	for cpu := 0; cpu < cpus.Len(); cpu++ {
		if !candidates.Has(cpu) {
			continue
		}
		load := cpus.TaskCount(cpu, ClassFIFO)
		if best == -1 || load < bestLoad {
			best, bestLoad = cpu, load
		}
	}
	if best == -1 {
		return cur
	}
	return best
}

// CPU is a small helper so SchedClass implementations can reach the owning
// CPU struct from an rq without threading a CPUTable through every method
// signature that already has one available.
func (rq *RunQueue) CPU(cpus *CPUTable) *CPU { return cpus.CPU(rq.cpuID) }
