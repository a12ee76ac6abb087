//go:build unix

package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srediag/quicklaunch/internal/logging"
	"github.com/srediag/quicklaunch/pkg/launcher"
	"github.com/srediag/quicklaunch/pkg/process"
	"github.com/srediag/quicklaunch/pkg/shm"
)

// copyTestBinary places the test binary where an unprivileged user can run it.
func copyTestBinary(t *testing.T) string {
	dir, err := os.MkdirTemp("", "quicklaunch-relay-")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	require.NoError(t, os.Chmod(dir, 0o755))

	src, err := os.Open(os.Args[0])
	require.NoError(t, err)
	defer src.Close() //nolint:errcheck

	bin := filepath.Join(dir, "relay.test")
	dst, err := os.OpenFile(bin, os.O_CREATE|os.O_WRONLY, 0o755)
	require.NoError(t, err)
	_, err = io.Copy(dst, src)
	require.NoError(t, err)
	require.NoError(t, dst.Close())
	return bin
}

func TestRelayDroppedToInvokingUserPublishes(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("needs root")
	}
	t.Setenv("SUDO_UID", "65534")
	t.Setenv("SUDO_GID", "65534")
	ctx := context.Background()
	bin := copyTestBinary(t)

	name := blockName()
	owner, err := shm.CreatePidBlock(ctx, name)
	require.NoError(t, err)
	defer owner.Close() //nolint:errcheck

	t.Setenv(relayEnv, "1")
	l := &process.OSLauncher{Dir: filepath.Dir(bin), Logger: logging.Discard()}
	require.NoError(t, l.StartRelay(ctx, bin, launcher.RelayArgs(bin, name, os.Getpid())))

	pid, err := owner.Wait(ctx, 10*time.Millisecond, 500)
	require.NoError(t, err)
	assert.Positive(t, pid)
}
