package sched

import (
	"context"
	"sync"
)

// This file names the external collaborator contracts from spec.md §6: the
// subsystems this core consumes but does not implement (page allocator,
// slab cache, VM, VFS/fs state, timer, IPI, trap/trampoline). They are
// declared as minimal interfaces so the scheduler core can be exercised and
// tested against fakes without pulling in a real MMU or block layer —
// exactly the boundary spec.md §1 draws ("explicitly OUT of scope... whose
// contracts appear in §6").

// PageAllocator is the page-allocator collaborator, used for PCB kernel
// stacks.
type PageAllocator interface {
	Alloc(order int) (addr uintptr, ok bool)
	Free(addr uintptr, order int)
}

// SlabCache is a named, fixed-size-object cache collaborator, used for the
// sigacts and ksiginfo pools.
type SlabCache interface {
	Alloc() (obj any, ok bool)
	Free(obj any)
}

// VM is the virtual-memory collaborator: address-space copy for fork,
// user/kernel copy for signal delivery, and user-stack growth for signal
// frame pushes.
type VM interface {
	Copy() VM
	Put()
	CopyIn(dst []byte, userAddr uintptr) error
	CopyOut(userAddr uintptr, src []byte) error
	GrowStack(newSize uintptr) error
}

// FSState is the VFS/fs-state collaborator: the process's cwd, root, and
// umask, refcounted and clone/put per fork/exec/exit semantics. The fd
// table is the separate FDTable collaborator.
type FSState interface {
	Clone() FSState
	Put()
}

// FDTable is the open-file-descriptor table collaborator.
type FDTable interface {
	Clone() FDTable
	Put()
	CloseAll()
}

// Timer is the collaborator that schedules a callback at a tick deadline,
// used by TIMER and KILLABLE_TIMER sleeps.
type Timer interface {
	// After schedules fn to run once at deadline ticks from now; returns a
	// cancel function.
	After(ctx context.Context, ticks int64, fn func()) (cancel func())
}

// IPISender is the inter-processor-interrupt collaborator: ipi_send_single
// from spec.md §6, used for remote wakeups of a running target whose state
// must change promptly (e.g. stop).
type IPISender interface {
	SendSingle(cpuID int, reason IPIReason) error
}

// IPIReason is the payload carried by an inter-processor interrupt.
type IPIReason int32

const (
	IPIReasonReschedule IPIReason = iota
	IPIReasonSignalStop
	IPIReasonSignalCheck
)

// SimplePageAllocator is a bump/free-list PageAllocator good enough to back
// PCB kernel stacks in tests and in NewScheduler's zero-value default: real
// deployments supply their own via WithPageAllocator-style wiring once one
// exists, the same way spec.md §6 treats the allocator as swappable.
type SimplePageAllocator struct {
	mu   sync.Mutex
	next uintptr
	free []uintptr
}

// Alloc returns a page-aligned address for a block of 2^order pages. It
// never fails (ok is always true) since it is a test/reference
// implementation, not a real physical allocator.
func (a *SimplePageAllocator) Alloc(order int) (uintptr, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.free); n > 0 {
		addr := a.free[n-1]
		a.free = a.free[:n-1]
		return addr, true
	}
	const pageSize = 4096
	addr := a.next + pageSize
	a.next = addr + pageSize<<uint(order)
	return addr, true
}

// Free returns addr to the free list for reuse by a later Alloc of the same
// order. The reference implementation does not track order per address;
// callers are expected to request matching orders, same as slab frees.
func (a *SimplePageAllocator) Free(addr uintptr, order int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free = append(a.free, addr)
}

// simpleSlabCache is a plain sync.Pool-backed SlabCache, used as the default
// for sigacts/ksiginfo pooling when no collaborator is supplied.
type simpleSlabCache struct {
	pool sync.Pool
}

// NewSimpleSlabCache returns a SlabCache whose objects are plain *SigActs
// allocations; new returns a fresh zero value whenever
// the pool is empty, exactly like sync.Pool's own contract.
func NewSimpleSlabCache() SlabCache {
	return &simpleSlabCache{
		pool: sync.Pool{New: func() any { return new(SigActs) }},
	}
}

func (c *simpleSlabCache) Alloc() (any, bool) { return c.pool.Get(), true }

func (c *simpleSlabCache) Free(obj any) { c.pool.Put(obj) }

// TrapFrame is the per-process trapframe storage collaborator: signals read
// and write the saved user registers (pc, sp, and the rest) through it.
// Field names match what frame.go's signal-frame layout needs to snapshot
// and restore.
type TrapFrame interface {
	PC() uintptr
	SetPC(uintptr)
	SP() uintptr
	SetSP(uintptr)
}
