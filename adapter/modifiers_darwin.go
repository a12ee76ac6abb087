//go:build darwin

package adapter

import "golang.design/x/hotkey"

const (
	modCtrl  = hotkey.ModCtrl
	modAlt   = hotkey.ModOption
	modShift = hotkey.ModShift
	modWin   = hotkey.ModCmd
)

func rawKey(uint8) (hotkey.Key, bool) { return 0, false }
