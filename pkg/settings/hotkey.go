// Package settings parses and persists the launcher module's settings.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/srediag/quicklaunch/api"
)

// HotkeyProperty is the property holding the launcher's invocation hotkey.
const HotkeyProperty = "open_powerlauncher"

var (
	// ErrNoHotkey is returned when the document has no complete hotkey entry.
	ErrNoHotkey = errors.New("hotkey not configured")
	// ErrInvalidKeyCode is returned for a code that is not a virtual-key number.
	ErrInvalidKeyCode = errors.New("invalid key code")
)

// hotkeyDoc mirrors properties.open_powerlauncher. Pointers tell a missing
// field apart from a false or zero one.
type hotkeyDoc struct {
	Properties *struct {
		OpenPowerLauncher *struct {
			Win   *bool    `json:"win"`
			Alt   *bool    `json:"alt"`
			Ctrl  *bool    `json:"ctrl"`
			Shift *bool    `json:"shift"`
			Code  *float64 `json:"code"`
		} `json:"open_powerlauncher"`
	} `json:"properties"`
}

// ParseHotkey reads properties.open_powerlauncher from a settings document.
// Every field must be present with the right type.
func ParseHotkey(doc []byte) (api.Hotkey, error) {
	var d hotkeyDoc
	if err := json.Unmarshal(doc, &d); err != nil {
		return api.Hotkey{}, fmt.Errorf("parse settings: %w", err)
	}
	if d.Properties == nil || d.Properties.OpenPowerLauncher == nil {
		return api.Hotkey{}, fmt.Errorf("properties.%s missing: %w", HotkeyProperty, ErrNoHotkey)
	}
	o := d.Properties.OpenPowerLauncher
	switch {
	case o.Win == nil:
		return api.Hotkey{}, fmt.Errorf("win missing: %w", ErrNoHotkey)
	case o.Alt == nil:
		return api.Hotkey{}, fmt.Errorf("alt missing: %w", ErrNoHotkey)
	case o.Ctrl == nil:
		return api.Hotkey{}, fmt.Errorf("ctrl missing: %w", ErrNoHotkey)
	case o.Shift == nil:
		return api.Hotkey{}, fmt.Errorf("shift missing: %w", ErrNoHotkey)
	case o.Code == nil:
		return api.Hotkey{}, fmt.Errorf("code missing: %w", ErrNoHotkey)
	}
	code := *o.Code
	if math.IsNaN(code) || code < 0 || code > math.MaxUint8 || code != math.Trunc(code) {
		return api.Hotkey{}, fmt.Errorf("code %v: %w", code, ErrInvalidKeyCode)
	}
	return api.Hotkey{
		Win:   *o.Win,
		Alt:   *o.Alt,
		Ctrl:  *o.Ctrl,
		Shift: *o.Shift,
		Key:   uint8(code),
	}, nil
}

// ApplyHotkey parses doc and never fails: when parsing does not succeed the
// previous descriptor is returned unbound (Key 0) together with the cause,
// which callers log.
func ApplyHotkey(prev api.Hotkey, doc []byte) (hk api.Hotkey, err error) {
	defer func() {
		if r := recover(); r != nil {
			prev.Key = 0
			hk, err = prev, fmt.Errorf("parse hotkey: %v", r)
		}
	}()
	hk, err = ParseHotkey(doc)
	if err != nil {
		prev.Key = 0
		return prev, err
	}
	return hk, nil
}
