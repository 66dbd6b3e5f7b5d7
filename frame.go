package sched

import "encoding/binary"

// This file implements spec.md §6's one byte-exact external surface: "the
// signal frame layout written onto the user stack: it stores the saved
// user-register block, the old signal mask, the old alternate-stack
// descriptor, and a pointer to the previous frame — consumed byte-for-byte
// by sigreturn." Field order below IS the wire format; reordering changes
// it. Per SPEC_FULL.md SUPPLEMENTED FEATURES, this is fully specified here
// since spec.md leaves the exact register set and widths to the
// implementer.

// SavedRegisters is an opaque general-purpose register snapshot. Its size is
// a stand-in for whatever target this scheduler's TrapFrame collaborator
// models; PC and SP are tracked separately below since they are the two
// registers sigreturn must restore precisely.
type SavedRegisters [32]uint64

// AltStack is the old alternate-signal-stack descriptor saved across a
// handler invocation, per spec.md §6.
type AltStack struct {
	Base  uintptr
	Size  uintptr
	Flags uint32
}

// SignalFrame is the fixed-layout record pushed onto the user stack at
// handler entry and consumed byte-for-byte by SigReturn (spec.md §8
// property 7: "push a signal frame for signo=S with mask M; after
// sigreturn, the process mask equals M and its user PC/SP equal the
// pre-handler values").
type SignalFrame struct {
	Regs      SavedRegisters
	OldPC     uintptr
	OldSP     uintptr
	OldMask   uint32
	OldAlt    AltStack
	PrevFrame uintptr
}

// signalFrameWireSize is the marshaled byte length: 32 registers * 8 bytes,
// old PC/SP (8 each), old mask (4), alt-stack base/size (8 each) and flags
// (4), and the previous-frame pointer (8).
const signalFrameWireSize = len(SavedRegisters{})*8 + 8 + 8 + 4 + 8 + 8 + 4 + 8

// Marshal serializes f into its wire layout, little-endian throughout.
func (f *SignalFrame) Marshal() []byte {
	buf := make([]byte, signalFrameWireSize)
	off := 0
	for _, r := range f.Regs {
		binary.LittleEndian.PutUint64(buf[off:], r)
		off += 8
	}
	binary.LittleEndian.PutUint64(buf[off:], uint64(f.OldPC))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], uint64(f.OldSP))
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], f.OldMask)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], uint64(f.OldAlt.Base))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], uint64(f.OldAlt.Size))
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], f.OldAlt.Flags)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], uint64(f.PrevFrame))
	return buf
}

// unmarshalSignalFrame is Marshal's inverse.
func unmarshalSignalFrame(buf []byte) SignalFrame {
	var f SignalFrame
	off := 0
	for i := range f.Regs {
		f.Regs[i] = binary.LittleEndian.Uint64(buf[off:])
		off += 8
	}
	f.OldPC = uintptr(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	f.OldSP = uintptr(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	f.OldMask = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	f.OldAlt.Base = uintptr(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	f.OldAlt.Size = uintptr(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	f.OldAlt.Flags = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	f.PrevFrame = uintptr(binary.LittleEndian.Uint64(buf[off:]))
	return f
}

// PushSignalFrame implements spec.md §4.5 step 2: builds a SignalFrame
// snapshotting trap's current PC/SP, oldMask (the blocked mask SigReturn
// hands back) and p's alt-stack, writes it to a new stack slot below the
// current SP (growing the stack via VM if needed), then redirects trap to
// act's handler so user execution resumes there. The mask in effect while
// the handler runs (sa_mask plus, unless SA_NODEFER, the signal itself) is
// not applied here; the caller applies it to sigacts under
// its own lock per spec.md §4.5 step 3, after this function returns, since
// no sigacts lock may be held across a potential stack-growth call into VM.
func PushSignalFrame(p *Proc, vm VM, trap TrapFrame, act SigAction, oldMask uint32) error {
	p.Lock.Lock()
	oldAlt := p.altStack
	prevFrame := p.lastFrame
	p.Lock.Unlock()

	frame := SignalFrame{
		OldPC:     trap.PC(),
		OldSP:     trap.SP(),
		OldMask:   oldMask,
		OldAlt:    oldAlt,
		PrevFrame: prevFrame,
	}

	newSP := trap.SP() - uintptr(signalFrameWireSize)
	if newSP == 0 || newSP > trap.SP() {
		return WrapError("PushSignalFrame", ErrInvalidArgument)
	}
	if err := vm.GrowStack(uintptr(signalFrameWireSize)); err != nil {
		return WrapError("PushSignalFrame", err)
	}
	if err := vm.CopyOut(newSP, frame.Marshal()); err != nil {
		return WrapError("PushSignalFrame", err)
	}

	p.Lock.Lock()
	p.lastFrame = newSP
	p.Lock.Unlock()

	trap.SetSP(newSP)
	trap.SetPC(act.Handler)
	return nil
}

// SigReturn implements spec.md §4.5's sigreturn: reads the frame at trap's
// current SP, restores the pre-handler PC/SP and alt-stack onto trap/p, and
// returns the mask that was in effect before the handler ran so the caller
// can restore it on sigacts (spec.md §8 property 7's round-trip contract).
func SigReturn(p *Proc, vm VM, trap TrapFrame) (restoredMask uint32, err error) {
	buf := make([]byte, signalFrameWireSize)
	if err := vm.CopyIn(buf, trap.SP()); err != nil {
		return 0, WrapError("SigReturn", err)
	}
	frame := unmarshalSignalFrame(buf)

	p.Lock.Lock()
	p.altStack = frame.OldAlt
	p.lastFrame = frame.PrevFrame
	p.Lock.Unlock()

	trap.SetPC(frame.OldPC)
	trap.SetSP(frame.OldSP)
	return frame.OldMask, nil
}
