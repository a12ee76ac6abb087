// Package shm contains platform-specific helpers for named shared memory regions.
package shm

import (
	"errors"
	"strings"
)

var (
	// ErrRegionNotFound is returned when opening a region nobody created.
	ErrRegionNotFound = errors.New("shared memory region not found")
	// ErrRegionTooSmall is returned when an existing region is smaller than requested.
	ErrRegionTooSmall = errors.New("shared memory region too small")
	// ErrInvalidMapOptions is returned for an empty name or a non-positive size.
	ErrInvalidMapOptions = errors.New("invalid map options")
)

// MappedRegion represents a memory-mapped shared region.
type MappedRegion struct {
	Addr []byte
	Name string
	// Created is true when this process created the region.
	Created bool

	sys regionHandle
}

// MapOptions defines options for mapping shared memory.
type MapOptions struct {
	Name   string
	Size   int
	Create bool
}

func (o MapOptions) validate() error {
	if strings.TrimSpace(o.Name) == "" || o.Size <= 0 {
		return ErrInvalidMapOptions
	}
	return nil
}

// Function implementations are provided in platform-specific files (platform_unix.go, platform_windows.go).
