//go:build windows

package shm

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

type regionHandle struct {
	mapping windows.Handle
	view    uintptr
}

// MapRegion maps or creates a pagefile-backed named mapping (Windows implementation).
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	name, err := windows.UTF16PtrFromString(opts.Name)
	if err != nil {
		return nil, fmt.Errorf("invalid region name %q: %w", opts.Name, err)
	}
	// CreateFileMapping opens the existing object when the name is taken
	// and reports ERROR_ALREADY_EXISTS alongside a valid handle.
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, uint32(opts.Size), name)
	if h == 0 {
		return nil, fmt.Errorf("CreateFileMapping %q: %w", opts.Name, err)
	}
	existed := errors.Is(err, windows.ERROR_ALREADY_EXISTS)
	if !opts.Create && !existed {
		_ = windows.CloseHandle(h)
		return nil, fmt.Errorf("open %q: %w", opts.Name, ErrRegionNotFound)
	}
	view, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(opts.Size))
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, fmt.Errorf("MapViewOfFile %q: %w", opts.Name, err)
	}
	return &MappedRegion{
		Addr:    unsafe.Slice((*byte)(unsafe.Pointer(view)), opts.Size),
		Name:    opts.Name,
		Created: opts.Create && !existed,
		sys:     regionHandle{mapping: h, view: view},
	}, nil
}

// UnmapRegion unmaps the view and closes the mapping handle (Windows implementation).
func UnmapRegion(ctx context.Context, region *MappedRegion) error {
	if region == nil || region.Addr == nil {
		return nil
	}
	var errs []error
	if err := windows.UnmapViewOfFile(region.sys.view); err != nil {
		errs = append(errs, fmt.Errorf("UnmapViewOfFile: %w", err))
	}
	region.Addr = nil
	if err := windows.CloseHandle(region.sys.mapping); err != nil {
		errs = append(errs, fmt.Errorf("CloseHandle: %w", err))
	}
	return errors.Join(errs...)
}
