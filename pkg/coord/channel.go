// Package coord owns the named OS objects through which the shim and its
// helper coordinate.
package coord

import (
	"context"
	"errors"
	"strings"

	"github.com/srediag/quicklaunch/pkg/shm"
)

const (
	// DefaultEventName is the auto-reset event the helper waits on to show itself.
	DefaultEventName = `Local\PowerToysRunInvokeEvent-30f26ad7-d36d-4c0e-ab02-68bb5ff3c4ab`
	// DefaultPidBlockName is the handshake block a relay publishes the helper PID to.
	DefaultPidBlockName = `Local\PowerLauncherPidSharedFile-3cbfbad4-199b-4e2c-9825-942d5d3d3c74`
)

// ErrInvalidChannel is returned by Validate for a channel with missing or
// clashing names.
var ErrInvalidChannel = errors.New("invalid coordination channel")

// Channel names the event and the handshake block. Both names are
// session-wide, so only one channel with given names is meaningful at a time.
type Channel struct {
	EventName    string
	PidBlockName string
	// Options instrument the handshake block.
	Options []shm.Option
}

// Default returns the well-known channel the helper expects.
func Default() Channel {
	return Channel{
		EventName:    DefaultEventName,
		PidBlockName: DefaultPidBlockName,
	}
}

// Validate checks that both names are set and distinct.
func (c Channel) Validate() error {
	ev, blk := strings.TrimSpace(c.EventName), strings.TrimSpace(c.PidBlockName)
	if ev == "" || blk == "" || ev == blk {
		return ErrInvalidChannel
	}
	return nil
}

// OpenEvent creates (or opens) the show event.
func (c Channel) OpenEvent(ctx context.Context) (*shm.Event, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return shm.CreateEvent(ctx, c.EventName)
}

// CreatePidBlock creates and zeroes the handshake block.
func (c Channel) CreatePidBlock(ctx context.Context) (*shm.PidBlock, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return shm.CreatePidBlock(ctx, c.PidBlockName, c.Options...)
}
