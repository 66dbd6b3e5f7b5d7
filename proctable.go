package sched

import "sync"

// ProcTable is the global process table from spec.md §3/§9: a map keyed by
// PID behind a lock for the slow path (lookup-by-pid, insert, remove), plus
// bounded PID allocation via a free-list so PIDs are reused once reaped
// (spec.md §5 "Global process-id allocation — bounded pool, protected by
// its own lock"). Readers that only need "is this still the same process"
// go through Proc's own RCU-protected fields rather than holding the
// table's lock (spec.md §9 "parent/child links are weak... resolved via PID
// or a pointer validated under the PCB lock").
//
// Adapted from the teacher's registry.go (eventloop's promise registry: an
// id-allocation counter plus a map[id]weak.Pointer[promise] with a ring
// buffer for GC scavenging). That registry exists because JS promises are
// garbage-collected and might vanish out from under a held ID; PCBs here
// are not garbage-collected; they have an explicit RCU-deferred-free
// lifecycle (rcu.go), so the weak-pointer/scavenging half of the teacher's
// design has no job to do and is dropped. What's kept is the core shape:
// a capacity-bounded id space, a map under a lock, and id values recycled
// rather than growing forever.
type ProcTable struct {
	mu       sync.RWMutex
	byPID    map[PID]*Proc
	freeList []PID
	nextPID  PID
	capacity int
}

// NewProcTable creates a table that can hold at most capacity live
// processes, with PIDs starting at 1 (0 is reserved as "no process").
func NewProcTable(capacity int) *ProcTable {
	return &ProcTable{
		byPID:    make(map[PID]*Proc, capacity),
		nextPID:  1,
		capacity: capacity,
	}
}

// Allocate reserves a PID for p and inserts it into the table. Returns
// ErrOutOfMemory if the table is at capacity — the bounded-pool contract
// from spec.md §5.
func (t *ProcTable) Allocate(p *Proc) (PID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pid PID
	if n := len(t.freeList); n > 0 {
		pid = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
	} else {
		if len(t.byPID) >= t.capacity {
			return 0, ErrOutOfMemory
		}
		pid = t.nextPID
		t.nextPID++
	}

	p.pid = pid
	t.byPID[pid] = p
	return pid, nil
}

// Lookup returns the process for pid, or nil if it has no live entry
// (never allocated, or already reaped).
func (t *ProcTable) Lookup(pid PID) *Proc {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byPID[pid]
}

// Remove deletes pid's entry and returns it to the free list for reuse.
// Called by wait() once a zombie's exit status has been harvested.
func (t *ProcTable) Remove(pid PID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byPID[pid]; !ok {
		return
	}
	delete(t.byPID, pid)
	t.freeList = append(t.freeList, pid)
}

// Len returns the number of live entries.
func (t *ProcTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byPID)
}

// Snapshot returns every live process, collected under the table's read
// lock so the caller can scan them without holding it.
func (t *ProcTable) Snapshot() []*Proc {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Proc, 0, len(t.byPID))
	for _, p := range t.byPID {
		out = append(out, p)
	}
	return out
}
