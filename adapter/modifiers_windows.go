//go:build windows

package adapter

import "golang.design/x/hotkey"

const (
	modCtrl  = hotkey.ModCtrl
	modAlt   = hotkey.ModAlt
	modShift = hotkey.ModShift
	modWin   = hotkey.ModWin
)

// Windows hotkeys take virtual-key codes as they are.
func rawKey(vk uint8) (hotkey.Key, bool) {
	return hotkey.Key(vk), true
}
