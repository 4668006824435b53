//go:build windows

package cmd

import "os"

// gracefulSignals returns the OS signals to capture for graceful shutdown.
// On Windows, only os.Interrupt (Ctrl+C / CTRL_C_EVENT) is reliably delivered.
// SIGTERM does not exist on Windows.
func gracefulSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// reloadSignals returns the OS signals that should trigger a rule-document
// hot reload without shutting the process down. Windows has no SIGHUP
// equivalent, so this returns nil; operators rely on the periodic mtime
// poll or /admin/reload instead.
func reloadSignals() []os.Signal {
	return nil
}
