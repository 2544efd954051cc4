//go:build windows
// +build windows

package console

import (
	"os"
)

// setNonblock is a no-op on Windows; console reads are handled by
// os.Stdin.Read directly.
func setNonblock(fd int, nonblock bool) error {
	return nil
}

// isNoData always reports false on Windows, where reads block instead of
// returning EAGAIN.
func isNoData(err error) bool {
	return false
}

// suspendTerminal is a no-op on Windows since SIGTSTP is not available.
func suspendTerminal() {}

// ignoreTerminalSignals is a no-op on Windows since SIGTTIN/SIGTTOU don't exist.
func ignoreTerminalSignals() {}

// resetTerminalSignals is a no-op on Windows since SIGTTIN/SIGTTOU don't exist.
func resetTerminalSignals() {}

// signalsToCapture returns the signals the session watches so it can
// restore the terminal before exiting. Windows only supports Ctrl+C.
func signalsToCapture() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// resizeSignal returns nil on Windows since SIGWINCH is not available.
func resizeSignal() os.Signal { return nil }
