package launcher

import "strconv"

// Command-line contract between the shim, the relay and the helper.
const (
	FlagHostPID         = "-powerToysPid"
	FlagCentralizedHook = "--centralized-kb-hook"
	FlagRunNonElevated  = "-run-non-elevated"
	FlagTarget          = "-target"
	FlagPidFile         = "-pidFile"
)

// HelperArgs are the arguments the helper is started with.
func HelperArgs(hostPID int) []string {
	return []string{FlagHostPID, strconv.Itoa(hostPID), FlagCentralizedHook}
}

// RelayArgs are the arguments the relay is started with: the relay mode,
// the helper to start, the handshake block to publish its PID to, then the
// helper's own arguments.
func RelayArgs(target, pidBlock string, hostPID int) []string {
	return append([]string{FlagRunNonElevated, FlagTarget, target, FlagPidFile, pidBlock}, HelperArgs(hostPID)...)
}
