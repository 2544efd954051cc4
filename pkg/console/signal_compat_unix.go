//go:build !windows
// +build !windows

package console

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
)

// setNonblock toggles non-blocking reads on a file descriptor so the
// input loop can poll for quiet periods.
func setNonblock(fd int, nonblocking bool) error {
	return syscall.SetNonblock(fd, nonblocking)
}

// isNoData reports whether a read error just means "nothing buffered" in
// non-blocking mode.
func isNoData(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}

// suspendTerminal stops the process the way the shell expects from
// Ctrl+Z. Execution resumes here after fg.
func suspendTerminal() {
	_ = syscall.Kill(os.Getpid(), syscall.SIGTSTP)
}

// ignoreTerminalSignals masks the background-IO signals that can arrive
// while the terminal is being re-acquired after a resume.
func ignoreTerminalSignals() {
	signal.Ignore(syscall.SIGTTIN, syscall.SIGTTOU)
}

// resetTerminalSignals restores default handling after a resume.
func resetTerminalSignals() {
	signal.Reset(syscall.SIGTTIN, syscall.SIGTTOU)
}

// signalsToCapture returns the signals the session watches so it can
// restore the terminal before exiting.
func signalsToCapture() []os.Signal {
	return []os.Signal{
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGHUP,
	}
}

// resizeSignal returns the terminal resize signal (SIGWINCH) on Unix.
func resizeSignal() os.Signal {
	return syscall.SIGWINCH
}
