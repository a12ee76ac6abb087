package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/srediag/quicklaunch/internal/logging"
)

// OSLauncher starts processes with os/exec.
type OSLauncher struct {
	// Dir is the working directory for started processes. Relative helper
	// paths are resolved against it. Empty means the current directory.
	Dir string
	// Logger receives child exit reports. Nil disables them.
	Logger *logging.Logger
}

var _ Launcher = (*OSLauncher)(nil)

// StartDirect implements Launcher.
func (l *OSLauncher) StartDirect(ctx context.Context, path string, args []string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd := exec.Command(path, args...)
	cmd.Dir = l.Dir
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	return l.watchCmd(cmd), nil
}

// StartRelay implements Launcher.
func (l *OSLauncher) StartRelay(ctx context.Context, path string, args []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	attr, release, err := relayAttr()
	if err != nil {
		return fmt.Errorf("relay attributes: %w", err)
	}
	defer release()

	cmd := exec.Command(path, args...)
	cmd.Dir = l.Dir
	cmd.SysProcAttr = attr
	stderr := bytebufferpool.Get()
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		bytebufferpool.Put(stderr)
		return fmt.Errorf("start relay %s: %w", path, err)
	}
	// Reap the relay; its child reports back through the handshake block.
	go func() {
		defer bytebufferpool.Put(stderr)
		if err := cmd.Wait(); err != nil {
			l.Logger.Errorf("relay %s exited: %v: %s", path, err, strings.TrimSpace(stderr.String()))
		}
	}()
	return nil
}

// Open implements Launcher.
func (l *OSLauncher) Open(pid int) (Handle, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("open pid %d: %w", pid, ErrNotRunning)
	}
	return openPid(pid)
}

// cmdHandle tracks a direct child. A goroutine waits on it so Exited never
// blocks and the child is reaped.
type cmdHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (l *OSLauncher) watchCmd(cmd *exec.Cmd) *cmdHandle {
	h := &cmdHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		if err := cmd.Wait(); err != nil {
			l.Logger.Debugf("process %d exited: %v", cmd.Process.Pid, err)
		}
		close(h.done)
	}()
	return h
}

func (h *cmdHandle) Pid() int { return h.cmd.Process.Pid }

func (h *cmdHandle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *cmdHandle) Terminate() error {
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill pid %d: %w", h.Pid(), err)
	}
	select {
	case <-h.done:
		return nil
	case <-time.After(terminateWait):
		return fmt.Errorf("pid %d still running after kill", h.Pid())
	}
}

func (h *cmdHandle) Close() error { return nil }
