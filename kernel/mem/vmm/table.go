package vmm

import "minircore/kernel/mem"

// PageTable provides access to the entries of a single page table frame
// through the physical memory offset mapping. The MMU reads page tables
// behind the compiler's back so entries are always accessed through a
// volatile mem.Region.
type PageTable struct {
	physAddr uintptr
	region   mem.Region
}

// tableAt returns the PageTable stored in the physical frame at physAddr.
func tableAt(physAddr uintptr) PageTable {
	return PageTable{
		physAddr: physAddr,
		region:   mem.RegionAt(physMemOffset+physAddr, mem.PageSize),
	}
}

// PhysAddress returns the physical address of the frame backing the table.
func (pt PageTable) PhysAddress() uintptr {
	return pt.physAddr
}

// Entry returns the entry at the given index. Indices outside [0, 512) cause
// a panic.
func (pt PageTable) Entry(index uintptr) PageTableEntry {
	return PageTableEntry(pt.region.Load64(index << mem.PointerShift))
}

// SetEntry overwrites the entry at the given index.
func (pt PageTable) SetEntry(index uintptr, pte PageTableEntry) {
	pt.region.Store64(index<<mem.PointerShift, uint64(pte))
}

// clear marks all table entries as not present.
func (pt PageTable) clear() {
	mem.Memset(pt.region.Base(), 0, pt.region.Size())
}
