//go:build windows

package sched

import "golang.org/x/sys/windows"

// EFD_CLOEXEC/EFD_NONBLOCK are unused on Windows (createWakeFd ignores
// flags) but declared so ipi.go's createWakeFd call compiles identically
// across platforms, mirroring wakeup_windows.go's constants of the same
// name and purpose.
const (
	EFD_CLOEXEC  = 0
	EFD_NONBLOCK = 0
)

// createWakeFd returns -1, -1: Windows IPI delivery rides on
// PostQueuedCompletionStatus against the CPU's IOCP handle (stored
// elsewhere; submitGenericWakeup's argument), not a file descriptor, the
// same no-fd convention wakeup_windows.go establishes for loop.go.
func createWakeFd(initval uint, flags int) (int, int, error) { return -1, -1, nil }

func closeWakeFd(readFD, writeFD int) error { return nil }

func writeWakeByte(fd int) error { return nil }

func drainWakeUpPipe() error { return nil }

// submitGenericWakeup posts a NULL completion to the IOCP handle named by
// iocpHandle, causing a GetQueuedCompletionStatus call blocked on it to
// return immediately — the exact mechanism wakeup_windows.go uses to wake
// the event loop's poller, repurposed here to wake a CPU's scheduler loop.
func submitGenericWakeup(iocpHandle uintptr) error {
	return windows.PostQueuedCompletionStatus(
		windows.Handle(iocpHandle),
		0,
		0,
		nil,
	)
}
