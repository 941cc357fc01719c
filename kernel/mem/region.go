package mem

import (
	"minircore/kernel"
	"sync/atomic"
	"unsafe"
)

var errRegionBounds = &kernel.Error{Module: "mem", Message: "access outside of memory region bounds"}

// Region is a window over memory that is also visible to the hardware (page
// tables, descriptor tables, memory-mapped registers). The compiler must not
// cache, merge or elide accesses to such memory, so all reads and writes go
// through atomic loads and stores.
type Region struct {
	base uintptr
	size Size
}

// RegionAt returns a Region spanning size bytes starting at virtual address
// base.
func RegionAt(base uintptr, size Size) Region {
	return Region{base: base, size: size}
}

// Base returns the virtual address where the region starts.
func (r Region) Base() uintptr {
	return r.base
}

// Size returns the region length in bytes.
func (r Region) Size() Size {
	return r.size
}

// Load64 reads the 8-byte word at the given offset. Offsets must be 8-byte
// aligned and fall inside the region; Load64 panics otherwise.
func (r Region) Load64(offset uintptr) uint64 {
	return atomic.LoadUint64((*uint64)(unsafe.Pointer(r.checkedAddr(offset))))
}

// Store64 writes an 8-byte word at the given offset. It applies the same
// constraints as Load64.
func (r Region) Store64(offset uintptr, val uint64) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(r.checkedAddr(offset))), val)
}

func (r Region) checkedAddr(offset uintptr) uintptr {
	if offset&7 != 0 || Size(offset) >= r.size || r.size-Size(offset) < 8 {
		panic(errRegionBounds)
	}

	return r.base + offset
}
