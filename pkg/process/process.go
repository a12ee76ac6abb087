// Package process starts, tracks and terminates helper processes.
//
// A Handle is the shim's view of a running process: it can be polled for exit
// without blocking and terminated. Handles come either from a direct start
// (the process is our child) or from opening a PID published by a relay.
package process

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoShell is returned when no desktop shell process is available to
	// start a relay under.
	ErrNoShell = errors.New("no desktop shell process")
	// ErrNotRunning is returned by Open for a PID with no live process.
	ErrNotRunning = errors.New("process not running")
)

// terminateWait bounds how long Terminate waits for the process to go away.
const terminateWait = 2 * time.Second

// Handle tracks one process.
type Handle interface {
	// Pid returns the process id.
	Pid() int
	// Exited reports, without blocking, whether the process has exited.
	Exited() bool
	// Terminate forcefully ends the process.
	Terminate() error
	// Close releases OS resources held by the handle.
	Close() error
}

// Launcher starts helper processes.
type Launcher interface {
	// StartDirect starts path with args as a child of the current process.
	StartDirect(ctx context.Context, path string, args []string) (Handle, error)
	// StartRelay starts path with args without the current process's
	// elevated privileges. The relay itself is not tracked.
	StartRelay(ctx context.Context, path string, args []string) error
	// Open returns a handle to an existing process that can be queried,
	// waited on and terminated.
	Open(pid int) (Handle, error)
}
