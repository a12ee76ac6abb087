//go:build unix

package process

import (
	"errors"
	"fmt"
	"slices"
	"syscall"
	"time"

	psprocess "github.com/shirou/gopsutil/v3/process"

	"github.com/srediag/quicklaunch/internal/elevation"
)

// relayAttr drops back to the invoking user when running under sudo.
// Without SUDO_UID the relay runs with the current credentials.
func relayAttr() (*syscall.SysProcAttr, func(), error) {
	noop := func() {}
	cred, ok, err := elevation.InvokingUser()
	if err != nil || !ok {
		return nil, noop, err
	}
	return &syscall.SysProcAttr{
		Credential: &syscall.Credential{Uid: cred.Uid, Gid: cred.Gid},
	}, noop, nil
}

// pidHandle tracks a process we did not start, through gopsutil.
type pidHandle struct {
	proc *psprocess.Process
}

func openPid(pid int) (Handle, error) {
	p, err := psprocess.NewProcess(int32(pid))
	if err != nil {
		if errors.Is(err, psprocess.ErrorProcessNotRunning) {
			return nil, fmt.Errorf("open pid %d: %w", pid, ErrNotRunning)
		}
		return nil, fmt.Errorf("open pid %d: %w", pid, err)
	}
	return &pidHandle{proc: p}, nil
}

func (h *pidHandle) Pid() int { return int(h.proc.Pid) }

func (h *pidHandle) Exited() bool {
	running, err := h.proc.IsRunning()
	if err != nil || !running {
		return true
	}
	// An unreaped child of some other process still has a /proc entry.
	if st, err := h.proc.Status(); err == nil && slices.Contains(st, psprocess.Zombie) {
		return true
	}
	return false
}

func (h *pidHandle) Terminate() error {
	if err := h.proc.Kill(); err != nil {
		if h.Exited() {
			return nil
		}
		return fmt.Errorf("kill pid %d: %w", h.Pid(), err)
	}
	deadline := time.Now().Add(terminateWait)
	for !h.Exited() {
		if time.Now().After(deadline) {
			return fmt.Errorf("pid %d still running after kill", h.Pid())
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func (h *pidHandle) Close() error { return nil }
