// Command relay starts the quick launcher helper on behalf of an elevated
// host and hands the helper's PID back through a shared handshake block.
//
// Usage:
//
//	relay -run-non-elevated -target <path> -pidFile <block name> [helper args...]
//
// The host starts the relay with lowered privileges, so the helper inherits
// them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/srediag/quicklaunch/internal/logging"
	"github.com/srediag/quicklaunch/pkg/launcher"
	"github.com/srediag/quicklaunch/pkg/process"
	"github.com/srediag/quicklaunch/pkg/shm"
)

var (
	errUnknownMode = errors.New("unknown mode")
	errUsage       = errors.New("usage: relay -run-non-elevated -target <path> -pidFile <name> [args...]")
)

type request struct {
	target   string
	pidBlock string
	args     []string
}

func parseArgs(args []string) (request, error) {
	if len(args) == 0 || args[0] != launcher.FlagRunNonElevated {
		return request{}, errUnknownMode
	}
	var req request
	rest := args[1:]
	for len(rest) >= 2 {
		switch rest[0] {
		case launcher.FlagTarget:
			req.target = rest[1]
		case launcher.FlagPidFile:
			req.pidBlock = rest[1]
		default:
			req.args = rest
			rest = nil
			continue
		}
		rest = rest[2:]
	}
	if req.args == nil {
		req.args = rest
	}
	if req.target == "" || req.pidBlock == "" {
		return request{}, errUsage
	}
	return req, nil
}

// run starts the target and publishes its PID. Publication happens once;
// the host treats the first nonzero value as final.
func run(ctx context.Context, args []string, l process.Launcher, log *logging.Logger) error {
	req, err := parseArgs(args)
	if err != nil {
		return err
	}
	blk, err := shm.OpenPidBlock(ctx, req.pidBlock)
	if err != nil {
		return fmt.Errorf("open handshake block: %w", err)
	}
	defer blk.Close() //nolint:errcheck

	h, err := l.StartDirect(ctx, req.target, req.args)
	if err != nil {
		return err
	}
	defer h.Close() //nolint:errcheck

	log.Infof("started %s as %d", req.target, h.Pid())
	if err := blk.Publish(uint32(h.Pid())); err != nil {
		return fmt.Errorf("publish pid %d: %w", h.Pid(), err)
	}
	return nil
}

func main() {
	log := logging.New("relay", os.Stderr)
	if err := run(context.Background(), os.Args[1:], &process.OSLauncher{Logger: log}, log); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
