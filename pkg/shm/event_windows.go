//go:build windows

package shm

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/windows"
)

// Event is a named auto-reset Win32 event.
type Event struct {
	name   string
	handle windows.Handle
	once   sync.Once
}

// CreateEvent creates the named event in the reset state, or opens it if it
// already exists.
func CreateEvent(ctx context.Context, name string) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("invalid event name %q: %w", name, err)
	}
	// Auto-reset, initially unsignalled, not inheritable.
	h, err := windows.CreateEvent(nil, 0, 0, p)
	if h == 0 {
		return nil, fmt.Errorf("CreateEvent %q: %w", name, err)
	}
	return &Event{name: name, handle: h}, nil
}

// OpenEvent opens an event created by another process.
func OpenEvent(ctx context.Context, name string) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("invalid event name %q: %w", name, err)
	}
	h, err := windows.OpenEvent(windows.EVENT_MODIFY_STATE|windows.SYNCHRONIZE, false, p)
	if err != nil {
		return nil, fmt.Errorf("OpenEvent %q: %w", name, err)
	}
	return &Event{name: name, handle: h}, nil
}

// Name returns the object name of the event.
func (e *Event) Name() string {
	return e.name
}

// Set signals the event.
func (e *Event) Set() error {
	return windows.SetEvent(e.handle)
}

// Reset clears a pending signal.
func (e *Event) Reset() error {
	return windows.ResetEvent(e.handle)
}

// TryWait consumes a pending signal without blocking and reports whether
// there was one.
func (e *Event) TryWait() (bool, error) {
	ev, err := windows.WaitForSingleObject(e.handle, 0)
	if err != nil {
		return false, err
	}
	return ev == windows.WAIT_OBJECT_0, nil
}

// Close releases the event handle.
func (e *Event) Close() error {
	var err error
	e.once.Do(func() {
		err = windows.CloseHandle(e.handle)
	})
	return err
}
