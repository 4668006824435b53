//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

// gracefulSignals returns the OS signals to capture for graceful shutdown.
// On Unix: SIGINT (Ctrl+C) and SIGTERM (kill).
func gracefulSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

// reloadSignals returns the OS signals that should trigger a rule-document
// hot reload without shutting the process down. On Unix: SIGHUP, the
// traditional "re-read your config" signal. nil on platforms with no
// equivalent.
func reloadSignals() []os.Signal {
	return []os.Signal{syscall.SIGHUP}
}
