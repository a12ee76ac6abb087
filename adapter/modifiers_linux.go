//go:build linux

package adapter

import "golang.design/x/hotkey"

// On X11 Alt is Mod1 and the Windows key is Mod4.
const (
	modCtrl  = hotkey.ModCtrl
	modAlt   = hotkey.Mod1
	modShift = hotkey.ModShift
	modWin   = hotkey.Mod4
)

func rawKey(uint8) (hotkey.Key, bool) { return 0, false }
