//go:build unix

package shm

import (
	"context"
	"fmt"
)

const (
	eventReset uint32 = 0
	eventSet   uint32 = 1
)

// Event is a named auto-reset event. On unix it is a shared word: Set stores
// 1, Reset stores 0 and a waiter consumes the signal by swapping 1 for 0.
type Event struct {
	word *Word
}

// CreateEvent creates the named event in the reset state, or opens it if it
// already exists.
func CreateEvent(ctx context.Context, name string) (*Event, error) {
	w, err := OpenWord(ctx, OpenOptions{Name: name, Create: true})
	if err != nil {
		return nil, fmt.Errorf("create event %q: %w", name, err)
	}
	return &Event{word: w}, nil
}

// OpenEvent opens an event created by another process.
func OpenEvent(ctx context.Context, name string) (*Event, error) {
	w, err := OpenWord(ctx, OpenOptions{Name: name})
	if err != nil {
		return nil, fmt.Errorf("open event %q: %w", name, err)
	}
	return &Event{word: w}, nil
}

// Name returns the object name of the event.
func (e *Event) Name() string {
	return e.word.Name()
}

// Set signals the event.
func (e *Event) Set() error {
	e.word.Store(eventSet)
	return nil
}

// Reset clears a pending signal.
func (e *Event) Reset() error {
	e.word.Store(eventReset)
	return nil
}

// TryWait consumes a pending signal without blocking and reports whether
// there was one.
func (e *Event) TryWait() (bool, error) {
	return e.word.CompareAndSwap(eventSet, eventReset), nil
}

// Close releases the event.
func (e *Event) Close() error {
	return e.word.Close()
}
