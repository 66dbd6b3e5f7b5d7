package sched

import (
	"errors"
	"fmt"
)

// Sentinel errors for the taxonomy in the scheduler's error-handling design:
// local recovery for OOM in non-critical paths, propagation otherwise, and a
// fixed errno-shaped surface for user-visible failures.
var (
	// ErrOutOfMemory is returned by PCB allocation, stack allocation,
	// signal-queue entry allocation, and sigacts duplication.
	ErrOutOfMemory = errors.New("sched: out of memory")

	// ErrInvalidArgument is returned for a bad PID, bad signal number, bad
	// priority, or a nil handle where one is required.
	ErrInvalidArgument = errors.New("sched: invalid argument")

	// ErrNoSuchProcess is returned by SignalSend for a nonexistent or
	// already-reaped PID.
	ErrNoSuchProcess = errors.New("sched: no such process")

	// ErrInterrupted is returned (as -EINTR) when a sleeping operation was
	// woken by a signal instead of completing normally.
	ErrInterrupted = errors.New("sched: interrupted")

	// ErrPermissionDenied is a policy-hook placeholder for signaling across
	// privilege domains.
	ErrPermissionDenied = errors.New("sched: permission denied")

	// ErrBusy indicates a conflicting repeated setup (Scheduler.Init returns
	// it when Init has already run).
	ErrBusy = errors.New("sched: busy")

	// ErrAlreadyRegistered indicates a scheduling class ID was registered
	// twice.
	ErrAlreadyRegistered = errors.New("sched: already registered")

	// ErrQueueFull is returned when a bounded per-signal queue is already
	// at its cap and the overflow policy does not apply.
	ErrQueueFull = errors.New("sched: signal queue full")

	// ErrSchedulerNotInitialized is returned when an operation requires
	// Init to have completed first.
	ErrSchedulerNotInitialized = errors.New("sched: scheduler not initialized")

	// ErrSchedulerShutDown is returned by operations attempted after Shutdown.
	ErrSchedulerShutDown = errors.New("sched: scheduler is shut down")
)

// WrapError attaches a message to cause, preserving errors.Is/errors.As
// matching against cause.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}

// invariant panics with a descriptive tag. It is reserved for conditions the
// spec calls programmer errors — e.g. freeing a runnable PCB, or detaching a
// child that isn't one — which are never user-reachable and must never be
// silently tolerated.
func invariant(tag string, args ...any) {
	panic(fmt.Sprintf("sched: invariant violated: "+tag, args...))
}
