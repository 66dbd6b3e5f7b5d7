package sched

import (
	"math/bits"
	"sync/atomic"
)

// ReadyMask is the per-CPU two-layer ready bitmap from spec.md §4.2: an
// 8-bit top_mask naming which of eight priority groups (8 majors each) has
// any ready task, and a 64-bit secondary_mask with one bit per major
// priority level. Both layers are updated atomically under the owning rq's
// spinlock at the empty<->non-empty transition, so readers only ever need
// acquire loads, never the rq lock.
type ReadyMask struct {
	top       atomic.Uint32 // only the low 8 bits are used
	secondary atomic.Uint64
}

// MarkReady sets the bit for major in both layers. Caller must hold the rq
// spinlock for major.
func (m *ReadyMask) MarkReady(major uint8) {
	group := major / 8
	m.secondary.Or(1 << major)
	m.top.Or(1 << group)
}

// MarkEmpty clears the bit for major in the secondary layer, and the
// corresponding top-layer bit only if no other major in that group of 8 is
// still ready. Caller must hold the rq spinlock for major.
func (m *ReadyMask) MarkEmpty(major uint8) {
	group := major / 8
	sec := m.secondary.Load() &^ (1 << major)
	m.secondary.Store(sec)
	groupSlice := uint8(sec >> (group * 8))
	if groupSlice == 0 {
		m.top.And(^(uint32(1) << group))
	}
}

// Lookup finds the highest-priority ready major: lowest set bit of top_mask
// selects a group of 8, then the lowest set bit of that 8-bit slice of
// secondary_mask selects the major within it. ok is false if nothing is
// ready.
func (m *ReadyMask) Lookup() (major uint8, ok bool) {
	top := m.top.Load() & 0xff
	if top == 0 {
		return 0, false
	}
	group := uint8(bits.TrailingZeros32(top))
	sec := m.secondary.Load()
	slice := uint8(sec >> (group * 8))
	if slice == 0 {
		return 0, false
	}
	bit := uint8(bits.TrailingZeros8(slice))
	return group*8 + bit, true
}

// IsReady reports whether major currently has at least one ready task.
func (m *ReadyMask) IsReady(major uint8) bool {
	return m.secondary.Load()&(1<<major) != 0
}
