//go:build windows

package process

import (
	"fmt"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

// relayAttr makes the desktop shell the parent of the relay, so the relay
// inherits the shell's unelevated token instead of ours.
func relayAttr() (*syscall.SysProcAttr, func(), error) {
	hwnd := windows.GetShellWindow()
	if hwnd == 0 {
		return nil, func() {}, ErrNoShell
	}
	var shellPid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &shellPid); err != nil {
		return nil, func() {}, fmt.Errorf("GetWindowThreadProcessId: %w", err)
	}
	shell, err := windows.OpenProcess(windows.PROCESS_CREATE_PROCESS, false, shellPid)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open shell pid %d: %w", shellPid, err)
	}
	release := func() { _ = windows.CloseHandle(shell) }
	return &syscall.SysProcAttr{ParentProcess: syscall.Handle(shell)}, release, nil
}

// winHandle is a process handle opened with terminate, query and
// synchronize rights.
type winHandle struct {
	pid    int
	handle windows.Handle
}

func openPid(pid int) (Handle, error) {
	const access = windows.PROCESS_TERMINATE | windows.PROCESS_QUERY_INFORMATION | windows.SYNCHRONIZE
	h, err := windows.OpenProcess(access, false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("OpenProcess %d: %w", pid, err)
	}
	return &winHandle{pid: pid, handle: h}, nil
}

func (h *winHandle) Pid() int { return h.pid }

func (h *winHandle) Exited() bool {
	ev, err := windows.WaitForSingleObject(h.handle, 0)
	return err == nil && ev == windows.WAIT_OBJECT_0
}

func (h *winHandle) Terminate() error {
	if err := windows.TerminateProcess(h.handle, 1); err != nil {
		return fmt.Errorf("TerminateProcess %d: %w", h.pid, err)
	}
	ev, err := windows.WaitForSingleObject(h.handle, uint32(terminateWait/time.Millisecond))
	if err != nil {
		return fmt.Errorf("wait pid %d: %w", h.pid, err)
	}
	if ev != windows.WAIT_OBJECT_0 {
		return fmt.Errorf("pid %d still running after terminate", h.pid)
	}
	return nil
}

func (h *winHandle) Close() error {
	return windows.CloseHandle(h.handle)
}
