// Package mem defines memory sizes, the page geometry of the target
// architecture and primitives for touching raw memory.
package mem

// Size represents a memory block size in bytes.
type Size uint64

// Common memory block sizes.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
	Gb        = 1024 * Mb
)

// Pages returns the number of pages that are required for storing this size.
func (s Size) Pages() uint64 {
	return uint64((s + PageSize - 1) >> PageShift)
}

// PageAlignUp rounds addr up to the next page boundary. Page-aligned
// addresses are returned unchanged.
func PageAlignUp(addr uintptr) uintptr {
	return (addr + uintptr(PageSize-1)) &^ uintptr(PageSize-1)
}

// PageAlignDown rounds addr down to the start of the page that contains it.
func PageAlignDown(addr uintptr) uintptr {
	return addr &^ uintptr(PageSize-1)
}
