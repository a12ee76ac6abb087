// Package shm provides named 32-bit shared words for cross-process coordination.
//
// Two primitives are built on a Word: PidBlock, the one-shot handshake a relay
// process uses to publish the PID of the process it started, and Event, a
// named auto-reset signal. Both are identified by well-known object names, so
// at most one owner per name is meaningful in a session.
//
// Example usage:
//
//	blk, err := shm.CreatePidBlock(ctx, name)
//	// start the relay with -pidFile name ...
//	pid, err := blk.Wait(ctx, 50*time.Millisecond, 80)
//	_ = blk.Close()
//
// Platform-specific mapping helpers are in internal/shm.
package shm
