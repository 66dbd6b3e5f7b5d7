package sched

import "sync/atomic"

// MaxCPUs bounds the CPU id space this package will address directly with a
// bitmask word; it is generous for the scale this core is meant to model.
const MaxCPUs = 64

// CPUMask is a bitmask of CPU ids, used for both the entity affinity mask
// and the global active-CPU mask (spec.md §3, §4.2).
type CPUMask uint64

// CPUMaskAll returns a mask with the low n bits set.
func CPUMaskAll(n int) CPUMask {
	if n >= 64 {
		return ^CPUMask(0)
	}
	return CPUMask(1)<<uint(n) - 1
}

// Has reports whether cpu is a member of the mask.
func (m CPUMask) Has(cpu int) bool { return m&(1<<uint(cpu)) != 0 }

// With returns m with cpu added.
func (m CPUMask) With(cpu int) CPUMask { return m | 1<<uint(cpu) }

// Without returns m with cpu removed.
func (m CPUMask) Without(cpu int) CPUMask { return m &^ (1 << uint(cpu)) }

// Count returns the number of CPUs in the mask.
func (m CPUMask) Count() int {
	n := 0
	for m != 0 {
		m &= m - 1
		n++
	}
	return n
}

// CPU bundles the per-CPU state the design calls "global mutable state" in
// §9: one set of run queues (one per registered scheduling class) plus the
// idle entity that always backs the IDLE class's single-entity rq. It also
// carries the currently-running entity, used by context-switch bookkeeping
// and RCU quiescent-state tracking.
type CPU struct {
	id int

	runQueues map[ClassID]*RunQueue
	mask      ReadyMask

	idle *SchedEntity

	current atomic.Pointer[SchedEntity]

	rcuNesting atomic.Int64
}

func newCPU(id int) *CPU {
	return &CPU{
		id:        id,
		runQueues: make(map[ClassID]*RunQueue),
	}
}

// ID returns the CPU's id.
func (c *CPU) ID() int { return c.id }

// Current returns the entity currently executing on this CPU, or nil if the
// idle entity has not yet been installed.
func (c *CPU) Current() *SchedEntity { return c.current.Load() }

// RunQueue returns the per-class run queue for this CPU, registering one
// lazily on first use. scheduler_init (scheduler.go) calls this for every
// registered class at boot so the map is never mutated after boot under
// concurrent access.
func (c *CPU) RunQueue(class SchedClass) *RunQueue {
	rq, ok := c.runQueues[class.ID()]
	if !ok {
		rq = newRunQueue(class, c.id)
		c.runQueues[class.ID()] = rq
	}
	return rq
}

// ActiveCPUMask tracks which CPUs have booted and set up their idle entity
// (spec.md §3 "Global rq state"). It is written once per CPU at boot and
// read frequently by select_task_rq, hence a single atomic word rather than
// a lock.
type ActiveCPUMask struct {
	mask atomic.Uint64
}

func (a *ActiveCPUMask) set(cpu int)   { a.mask.Or(1 << uint(cpu)) }
func (a *ActiveCPUMask) Load() CPUMask { return CPUMask(a.mask.Load()) }

// CPUTable is the global per-CPU registry: one CPU struct per booted CPU
// plus the active-CPU mask, per spec.md §3 "Global rq state". It is built
// once by scheduler_init and never mutated afterward, so lookups need no
// lock.
type CPUTable struct {
	cpus   []*CPU
	active ActiveCPUMask
}

// NewCPUTable allocates n CPUs, none yet marked active.
func NewCPUTable(n int) *CPUTable {
	t := &CPUTable{cpus: make([]*CPU, n)}
	for i := range t.cpus {
		t.cpus[i] = newCPU(i)
	}
	return t
}

// Len returns the number of CPUs in the table.
func (t *CPUTable) Len() int { return len(t.cpus) }

// CPU returns the CPU struct for id.
func (t *CPUTable) CPU(id int) *CPU { return t.cpus[id] }

// Activate marks cpu as booted and ready to receive work.
func (t *CPUTable) Activate(cpu int) { t.active.set(cpu) }

// ActiveMask returns the current active-CPU mask.
func (t *CPUTable) ActiveMask() CPUMask { return t.active.Load() }

// TaskCount reports how many entities are queued for class on cpu, used by
// FIFO's SelectTaskRQ to pick the least-loaded CPU (spec.md §4.2).
func (t *CPUTable) TaskCount(cpu int, class ClassID) int {
	rq, ok := t.cpus[cpu].runQueues[class]
	if !ok {
		return 0
	}
	return rq.TaskCount()
}
