package shm

import (
	"sync/atomic"
	"unsafe"
)

// Word32 returns a pointer to the aligned 32-bit word at offset in region.
// It panics when offset is out of range or misaligned.
func Word32(region *MappedRegion, offset int) *uint32 {
	if offset < 0 || offset%4 != 0 || offset+4 > len(region.Addr) {
		panic("shm: word offset out of range")
	}
	return (*uint32)(unsafe.Pointer(&region.Addr[offset]))
}

// AtomicLoadUint32 loads a uint32 from shared memory atomically.
func AtomicLoadUint32(addr *uint32) uint32 {
	return atomic.LoadUint32(addr)
}

// AtomicStoreUint32 stores a uint32 to shared memory atomically.
func AtomicStoreUint32(addr *uint32, val uint32) {
	atomic.StoreUint32(addr, val)
}

// AtomicCompareAndSwapUint32 atomically compares and swaps a uint32 in shared memory.
func AtomicCompareAndSwapUint32(addr *uint32, old, new uint32) bool {
	return atomic.CompareAndSwapUint32(addr, old, new)
}
