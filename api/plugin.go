// Package api defines the contracts a quicklaunch module offers its host.
package api

// Configurable exchanges settings documents with the host.
type Configurable interface {
	// Name returns the display name.
	Name() string
	// Key returns the non-localised key the host caches the module under.
	Key() string
	// Config returns the settings page document. ok is false when it could
	// not be produced.
	Config() (doc []byte, ok bool)
	// SetConfig applies a settings values document.
	SetConfig(doc []byte)
	// CallCustomAction runs a named action requested by the settings editor.
	CallCustomAction(action []byte)
}

// Hotkeyed modules expose hotkeys for the host to register.
type Hotkeyed interface {
	Hotkeys() []Hotkey
	// OnHotkey is called when hotkey id fires and reports whether the
	// module handled it.
	OnHotkey(id int) bool
}

// Module is the full capability set the host holds a reference to.
type Module interface {
	Lifecycle
	Configurable
	Hotkeyed
}

// Hotkey is a global hotkey descriptor. Key is a virtual-key code; zero
// means no hotkey is bound.
type Hotkey struct {
	Win   bool  `json:"win"`
	Ctrl  bool  `json:"ctrl"`
	Alt   bool  `json:"alt"`
	Shift bool  `json:"shift"`
	Key   uint8 `json:"code"`
}

// Bound reports whether a key is assigned.
func (h Hotkey) Bound() bool { return h.Key != 0 }
