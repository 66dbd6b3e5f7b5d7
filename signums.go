package sched

// Signal numbers this design gives fixed, POSIX-familiar meaning to. Values
// are chosen to match common POSIX numbering where it doesn't matter, purely
// so test scenarios reading "SIGTERM"/"SIGKILL"/"SIGSTOP"/"SIGCONT" in
// spec.md §8 map onto names here directly; no si_code-level compatibility is
// claimed (spec.md §1 Non-goals).
const (
	SIGHUP  Signal = 1
	SIGINT  Signal = 2
	SIGQUIT Signal = 3
	SIGILL  Signal = 4
	SIGTRAP Signal = 5
	SIGABRT Signal = 6
	SIGBUS  Signal = 7
	SIGFPE  Signal = 8
	SIGKILL Signal = 9
	SIGUSR1 Signal = 10
	SIGSEGV Signal = 11
	SIGUSR2 Signal = 12
	SIGPIPE Signal = 13
	SIGALRM Signal = 14
	SIGTERM Signal = 15
	SIGCHLD Signal = 17
	SIGCONT Signal = 18
	SIGSTOP Signal = 19
	SIGTSTP Signal = 20
	SIGTTIN Signal = 21
	SIGTTOU Signal = 22
)

func sigMaskOf(sigs ...Signal) uint32 {
	var m uint32
	for _, s := range sigs {
		m |= 1 << uint(s)
	}
	return m
}

// defaultSigTerm, defaultSigStop, defaultSigCont, and defaultSigIgnore are
// the precomputed masks spec.md §4.5 calls "sigterm (default-terminate),
// sigstop, sigcont, sigignore". They describe each signal's *default*
// disposition when no handler is installed; SigActs layers a process's
// actual handler table on top and falls back to these only for signals
// still at SIG_DFL.
var (
	defaultSigTerm = sigMaskOf(
		SIGHUP, SIGINT, SIGQUIT, SIGILL, SIGTRAP, SIGABRT, SIGBUS, SIGFPE,
		SIGKILL, SIGUSR1, SIGSEGV, SIGUSR2, SIGPIPE, SIGALRM, SIGTERM,
	)
	defaultSigStop   = sigMaskOf(SIGSTOP, SIGTSTP, SIGTTIN, SIGTTOU)
	defaultSigCont   = sigMaskOf(SIGCONT)
	defaultSigIgnore = sigMaskOf(SIGCHLD)
)

// Disposition is a signal action's behavior when it has no installed
// handler.
type Disposition int

const (
	DispDefault Disposition = iota
	DispIgnore
	DispHandler
)

// SigAction is one signal's action record: its disposition, optional
// handler identity (opaque to this package; the VM/trap collaborator
// resolves it to a user address), blocking mask applied during the handler,
// and flags.
type SigAction struct {
	Disposition Disposition
	Handler     uintptr // user address, meaningful only if Disposition == DispHandler
	Mask        uint32  // sa_mask: additionally blocked while the handler runs
	SigInfo     bool    // SA_SIGINFO
	NoDefer     bool    // SA_NODEFER
	ResetHand   bool    // SA_RESETHAND
}
