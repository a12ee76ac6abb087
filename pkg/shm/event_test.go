package shm

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_SetTryWaitReset(t *testing.T) {
	ctx := context.Background()
	name := fmt.Sprintf(`Local\quicklaunch-event-%d`, os.Getpid())

	owner, err := CreateEvent(ctx, name)
	require.NoError(t, err)
	defer owner.Close() //nolint:errcheck

	helper, err := OpenEvent(ctx, name)
	require.NoError(t, err)
	defer helper.Close() //nolint:errcheck

	ok, err := helper.TryWait()
	require.NoError(t, err)
	assert.False(t, ok, "new event must start reset")

	require.NoError(t, owner.Set())
	ok, err = helper.TryWait()
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = helper.TryWait()
	require.NoError(t, err)
	assert.False(t, ok, "auto-reset event must clear after one wait")

	require.NoError(t, owner.Set())
	require.NoError(t, owner.Reset())
	ok, err = helper.TryWait()
	require.NoError(t, err)
	assert.False(t, ok, "reset must drop the pending signal")
}

func TestEvent_CloseTwice(t *testing.T) {
	ev, err := CreateEvent(context.Background(), fmt.Sprintf(`Local\quicklaunch-close-%d`, os.Getpid()))
	require.NoError(t, err)
	assert.NoError(t, ev.Close())
	assert.NoError(t, ev.Close())
}
