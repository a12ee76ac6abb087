//go:build unix

package elevation

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// IsElevated reports whether the process runs with an effective uid of root.
func IsElevated() bool {
	return unix.Geteuid() == 0
}

// Credential identifies a unix user and primary group.
type Credential struct {
	Uid uint32
	Gid uint32
}

// InvokingUser returns the user sudo recorded in SUDO_UID and SUDO_GID. ok
// is false unless the process runs as root with both set.
func InvokingUser() (cred Credential, ok bool, err error) {
	if !IsElevated() {
		return Credential{}, false, nil
	}
	uidStr, gidStr := os.Getenv("SUDO_UID"), os.Getenv("SUDO_GID")
	if uidStr == "" || gidStr == "" {
		return Credential{}, false, nil
	}
	uid, err := strconv.ParseUint(uidStr, 10, 32)
	if err != nil {
		return Credential{}, false, fmt.Errorf("SUDO_UID %q: %w", uidStr, err)
	}
	gid, err := strconv.ParseUint(gidStr, 10, 32)
	if err != nil {
		return Credential{}, false, fmt.Errorf("SUDO_GID %q: %w", gidStr, err)
	}
	return Credential{Uid: uint32(uid), Gid: uint32(gid)}, true, nil
}
