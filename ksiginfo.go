package sched

// Signal identifies a signal number. NSIG bounds the usable range; Signal 0
// is not a real signal (used as a sentinel "no signal" value).
type Signal int32

// NSIG is the number of distinct signal numbers this design supports.
const NSIG = 32

// SigQueueCap is the cap on a per-signal FIFO queue length, per spec.md §3
// ("Pending signal record... ") and §4.5 ("cap per-signal queue length at
// 8 (drop oldest on overflow)"), and §8 property 6.
const SigQueueCap = 8

// KSigInfo is one queued instance of a signal: its number, the sending
// process's pid, an opaque payload, and linkage (it lives in a plain slice
// per signal rather than an intrusive list, since the cap is tiny and a
// slice-based ring is simpler to reason about at 8 entries).
type KSigInfo struct {
	Signo   Signal
	Sender  PID
	Payload any
}

// PendingSet is the per-process pending-signal state from spec.md §3: a
// pending bitmap plus a per-signal FIFO queue, and the derived-flag
// recalculation in §3's invariant list: "The signal pending bit for a
// signal S is set if and only if the per-signal queue is non-empty OR S is
// a non-queued signal flagged pending."
type PendingSet struct {
	// nonQueued holds the pending bit for signals delivered without a
	// queued KSigInfo (the common, non-SA_SIGINFO case).
	nonQueued uint32 // bit Signo set iff pending without a queue entry
	queues    [NSIG][]KSigInfo
}

// Pending reports whether signo is currently pending by either path.
func (p *PendingSet) Pending(signo Signal) bool {
	return p.nonQueued&(1<<uint(signo)) != 0 || len(p.queues[signo]) > 0
}

// Mask returns the full pending set as a bitmap (queue-backed signals are
// pending iff their queue is non-empty).
func (p *PendingSet) Mask() uint32 {
	m := p.nonQueued
	for s := Signal(0); s < NSIG; s++ {
		if len(p.queues[s]) > 0 {
			m |= 1 << uint(s)
		}
	}
	return m
}

// SetNonQueued marks signo pending without a queue entry.
func (p *PendingSet) SetNonQueued(signo Signal) { p.nonQueued |= 1 << uint(signo) }

// ClearNonQueued clears signo's non-queued pending bit.
func (p *PendingSet) ClearNonQueued(signo Signal) { p.nonQueued &^= 1 << uint(signo) }

// Enqueue appends info to signo's queue, dropping the oldest entry if the
// queue is already at SigQueueCap (spec.md §4.5, §8 property 6).
func (p *PendingSet) Enqueue(signo Signal, info KSigInfo) {
	q := p.queues[signo]
	if len(q) >= SigQueueCap {
		q = q[1:]
	}
	p.queues[signo] = append(q, info)
}

// PopHead removes and returns the head of signo's queue, if any.
func (p *PendingSet) PopHead(signo Signal) (KSigInfo, bool) {
	q := p.queues[signo]
	if len(q) == 0 {
		return KSigInfo{}, false
	}
	head := q[0]
	p.queues[signo] = q[1:]
	return head, true
}

// ClearStopSignals removes every pending stop-class signal from both the
// non-queued bitmap and the per-signal queues, per the SIGCONT delivery
// rule in spec.md §4.5 ("clear all pending stop bits from per-thread and
// shared queues").
func (p *PendingSet) ClearStopSignals(sigstop uint32) {
	p.nonQueued &^= sigstop
	for s := Signal(0); s < NSIG; s++ {
		if sigstop&(1<<uint(s)) != 0 {
			p.queues[s] = nil
		}
	}
}

// lowestPendingUnmasked returns the lowest-numbered signal that is pending
// and not in blocked, or -1 if none.
func (p *PendingSet) lowestPendingUnmasked(blocked uint32) Signal {
	unmasked := p.Mask() &^ blocked
	if unmasked == 0 {
		return -1
	}
	for s := Signal(0); s < NSIG; s++ {
		if unmasked&(1<<uint(s)) != 0 {
			return s
		}
	}
	return -1
}

// recalcSigPending updates p's SIGPENDING flag to match (pending ∧
// ¬blocked), per spec.md §3's invariant: "The SIGPENDING process flag is
// set iff (pending ∧ ¬blocked) is non-empty."
func (p *Proc) recalcSigPending(blocked uint32) {
	if p.pending.Mask()&^blocked != 0 {
		p.flags.Set(FlagSigPending)
	} else {
		p.flags.Clear(FlagSigPending)
	}
}
