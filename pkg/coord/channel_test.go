package coord

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChannel(t *testing.T) Channel {
	return Channel{
		EventName:    fmt.Sprintf(`Local\quicklaunch-coord-event-%d`, os.Getpid()),
		PidBlockName: fmt.Sprintf(`Local\quicklaunch-coord-pid-%d`, os.Getpid()),
	}
}

func TestChannel_Validate(t *testing.T) {
	assert.NoError(t, Default().Validate())
	assert.ErrorIs(t, Channel{}.Validate(), ErrInvalidChannel)
	assert.ErrorIs(t, Channel{EventName: "a"}.Validate(), ErrInvalidChannel)
	assert.ErrorIs(t, Channel{EventName: "a", PidBlockName: "a"}.Validate(), ErrInvalidChannel)
}

func TestChannel_OpenObjects(t *testing.T) {
	ctx := context.Background()
	ch := testChannel(t)

	ev, err := ch.OpenEvent(ctx)
	require.NoError(t, err)
	defer ev.Close() //nolint:errcheck
	assert.Equal(t, ch.EventName, ev.Name())

	blk, err := ch.CreatePidBlock(ctx)
	require.NoError(t, err)
	defer blk.Close() //nolint:errcheck
	assert.Equal(t, ch.PidBlockName, blk.Name())
	assert.Zero(t, blk.Load())
}

func TestChannel_InvalidRefusesObjects(t *testing.T) {
	_, err := Channel{}.OpenEvent(context.Background())
	assert.ErrorIs(t, err, ErrInvalidChannel)
	_, err = Channel{}.CreatePidBlock(context.Background())
	assert.ErrorIs(t, err, ErrInvalidChannel)
}
