package adapter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"

	"github.com/srediag/quicklaunch/api"
	"github.com/srediag/quicklaunch/internal/logging"
)

const keyRepeatWindow = 300 * time.Millisecond

// ErrUnsupportedKey is returned for a key code with no global hotkey
// equivalent on this platform.
var ErrUnsupportedKey = errors.New("unsupported key code")

// HotkeySource registers a module's hotkeys with the OS and reports presses
// by hotkey index. Holding a key down reports one press.
type HotkeySource struct {
	mu      sync.Mutex
	keys    []*hotkey.Hotkey
	stop    chan struct{}
	onPress func(id int)
	log     *logging.Logger
}

// NewHotkeySource creates a source that calls onPress from its listener
// goroutines.
func NewHotkeySource(onPress func(id int), log *logging.Logger) *HotkeySource {
	if log == nil {
		log = logging.Discard()
	}
	return &HotkeySource{onPress: onPress, log: log}
}

// Translate maps a descriptor to the OS hotkey. The key code is a Windows
// virtual-key code.
func Translate(h api.Hotkey) ([]hotkey.Modifier, hotkey.Key, error) {
	if !h.Bound() {
		return nil, 0, ErrUnsupportedKey
	}
	key, ok := keyMap[h.Key]
	if !ok {
		if key, ok = rawKey(h.Key); !ok {
			return nil, 0, fmt.Errorf("0x%02x: %w", h.Key, ErrUnsupportedKey)
		}
	}
	var mods []hotkey.Modifier
	if h.Ctrl {
		mods = append(mods, modCtrl)
	}
	if h.Alt {
		mods = append(mods, modAlt)
	}
	if h.Shift {
		mods = append(mods, modShift)
	}
	if h.Win {
		mods = append(mods, modWin)
	}
	return mods, key, nil
}

// Register replaces the registered hotkeys. Hotkeys that cannot be
// registered are skipped; the first failure is returned.
func (s *HotkeySource) Register(hks []api.Hotkey) error {
	s.Unregister()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop = make(chan struct{})
	var first error
	for id, h := range hks {
		mods, key, err := Translate(h)
		if err == nil {
			hk := hotkey.New(mods, key)
			if err = hk.Register(); err == nil {
				s.keys = append(s.keys, hk)
				go s.listen(id, hk, s.stop)
				s.log.Infof("hotkey %d registered: %+v", id, h)
				continue
			}
		}
		s.log.Warnf("hotkey %d not registered: %v", id, err)
		if first == nil {
			first = err
		}
	}
	return first
}

// Unregister releases every registered hotkey.
func (s *HotkeySource) Unregister() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	for _, hk := range s.keys {
		if err := hk.Unregister(); err != nil {
			s.log.Warnf("hotkey unregister: %v", err)
		}
	}
	s.keys = nil
}

func (s *HotkeySource) listen(id int, hk *hotkey.Hotkey, stop <-chan struct{}) {
	var last time.Time
	for {
		select {
		case <-stop:
			return
		case _, ok := <-hk.Keydown():
			if !ok {
				return
			}
			now := time.Now()
			if now.Sub(last) < keyRepeatWindow {
				continue
			}
			last = now
			if s.onPress != nil {
				s.onPress(id)
			}
		}
	}
}

// RunOnMainThread runs fn with the OS main thread available for hotkey
// registration, as macOS requires.
func RunOnMainThread(fn func()) {
	mainthread.Init(fn)
}

// keyMap covers the virtual-key codes with a named key on every platform.
var keyMap = map[uint8]hotkey.Key{
	0x09: hotkey.KeyTab,
	0x0D: hotkey.KeyReturn,
	0x20: hotkey.KeySpace,
	0x30: hotkey.Key0,
	0x31: hotkey.Key1,
	0x32: hotkey.Key2,
	0x33: hotkey.Key3,
	0x34: hotkey.Key4,
	0x35: hotkey.Key5,
	0x36: hotkey.Key6,
	0x37: hotkey.Key7,
	0x38: hotkey.Key8,
	0x39: hotkey.Key9,
	0x41: hotkey.KeyA,
	0x42: hotkey.KeyB,
	0x43: hotkey.KeyC,
	0x44: hotkey.KeyD,
	0x45: hotkey.KeyE,
	0x46: hotkey.KeyF,
	0x47: hotkey.KeyG,
	0x48: hotkey.KeyH,
	0x49: hotkey.KeyI,
	0x4A: hotkey.KeyJ,
	0x4B: hotkey.KeyK,
	0x4C: hotkey.KeyL,
	0x4D: hotkey.KeyM,
	0x4E: hotkey.KeyN,
	0x4F: hotkey.KeyO,
	0x50: hotkey.KeyP,
	0x51: hotkey.KeyQ,
	0x52: hotkey.KeyR,
	0x53: hotkey.KeyS,
	0x54: hotkey.KeyT,
	0x55: hotkey.KeyU,
	0x56: hotkey.KeyV,
	0x57: hotkey.KeyW,
	0x58: hotkey.KeyX,
	0x59: hotkey.KeyY,
	0x5A: hotkey.KeyZ,
	0x70: hotkey.KeyF1,
	0x71: hotkey.KeyF2,
	0x72: hotkey.KeyF3,
	0x73: hotkey.KeyF4,
	0x74: hotkey.KeyF5,
	0x75: hotkey.KeyF6,
	0x76: hotkey.KeyF7,
	0x77: hotkey.KeyF8,
	0x78: hotkey.KeyF9,
	0x79: hotkey.KeyF10,
	0x7A: hotkey.KeyF11,
	0x7B: hotkey.KeyF12,
}
