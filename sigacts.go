package sched

import "sync/atomic"

// SigActs is the reference-counted, optionally-shared signal-action table
// from spec.md §3: per-signal action records, the process-level blocked
// mask, the original mask saved before handler entry, and the derived
// sigterm/sigstop/sigcont/sigignore masks. Protected by its own spinlock,
// per spec.md §4.5 "All access under sigacts lock." The refcount uses the
// same inc-if-not-zero CAS-loop discipline as catrate's category refcounts:
// Share must never resurrect a table mid-teardown.
type SigActs struct {
	refcount atomic.Int64

	Lock Spinlock

	actions [NSIG]SigAction
	blocked uint32
	saved   uint32 // original mask, saved before handler entry
}

// NewSigActs creates a fresh table with every signal at its default
// disposition, refcount 1.
func NewSigActs() *SigActs {
	s := &SigActs{}
	s.refcount.Store(1)
	return s
}

// Share increments the refcount so another process can use the same table;
// Fork calls it for every child. Returns false if the
// table is already being torn down (refcount observed at 0), in which case
// the caller must deep-copy instead.
func (s *SigActs) Share() bool {
	return IncIfNotZero(&s.refcount)
}

// Put releases a reference; once it reaches zero the table is no longer
// valid and must not be dereferenced.
func (s *SigActs) Put() {
	if s.refcount.Add(-1) < 0 {
		invariant("SigActs refcount underflow")
	}
}

// Clone deep-copies the table into a new one with refcount 1, used for fork
// when handlers are not shared.
func (s *SigActs) Clone() *SigActs {
	s.Lock.Lock()
	defer s.Lock.Unlock()
	c := NewSigActs()
	c.actions = s.actions
	c.blocked = s.blocked
	c.saved = s.saved
	return c
}

// sigtermMask returns the effective sigterm (default-terminate) mask:
// signals still at SIG_DFL among the default-terminate set, plus any signal
// explicitly installed with DispDefault that belongs to that set.
func (s *SigActs) sigtermMask() uint32 {
	return s.defaultMaskFor(defaultSigTerm)
}

func (s *SigActs) sigstopMask() uint32 { return s.defaultMaskFor(defaultSigStop) }
func (s *SigActs) sigcontMask() uint32 { return s.defaultMaskFor(defaultSigCont) }

// sigignoreMask returns signals that will be silently dropped: those
// explicitly set to DispIgnore, plus those at SIG_DFL within the
// default-ignore set (SIGCHLD).
func (s *SigActs) sigignoreMask() uint32 {
	var m uint32
	for sig := Signal(0); sig < NSIG; sig++ {
		a := s.actions[sig]
		if a.Disposition == DispIgnore {
			m |= 1 << uint(sig)
		} else if a.Disposition == DispDefault && defaultSigIgnore&(1<<uint(sig)) != 0 {
			m |= 1 << uint(sig)
		}
	}
	return m
}

func (s *SigActs) defaultMaskFor(class uint32) uint32 {
	var m uint32
	for sig := Signal(0); sig < NSIG; sig++ {
		if class&(1<<uint(sig)) == 0 {
			continue
		}
		if s.actions[sig].Disposition == DispDefault {
			m |= 1 << uint(sig)
		}
	}
	return m
}

// SetAction installs act for signo. Caller holds Lock.
func (s *SigActs) SetAction(signo Signal, act SigAction) {
	s.actions[signo] = act
}

// Action returns signo's current action record. Caller holds Lock.
func (s *SigActs) Action(signo Signal) SigAction {
	return s.actions[signo]
}

// Blocked returns the current blocked mask. Caller holds Lock.
func (s *SigActs) Blocked() uint32 { return s.blocked }

// SetBlocked replaces the blocked mask. SIGKILL and SIGSTOP can never be
// blocked; callers must scrub those bits before calling, but this function
// enforces it defensively since a bug here would be a silent priv-escalation
// of sorts (a process could otherwise dodge termination indefinitely).
func (s *SigActs) SetBlocked(mask uint32) {
	s.blocked = mask &^ sigMaskOf(SIGKILL, SIGSTOP)
}

// BlockAdditional ORs extra into the blocked mask, returning the previous
// mask so the caller can restore it later (sa_mask application during
// handler entry).
func (s *SigActs) BlockAdditional(extra uint32) uint32 {
	prev := s.blocked
	s.SetBlocked(s.blocked | extra)
	return prev
}
