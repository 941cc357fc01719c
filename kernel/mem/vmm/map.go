package vmm

import (
	"minircore/kernel"
	"minircore/kernel/mem/pmm"
)

// FrameAllocatorFn is a function that can allocate physical frames.
type FrameAllocatorFn func() (pmm.Frame, *kernel.Error)

// Map establishes a mapping between a virtual page and a physical memory frame
// using the currently active page directory table. Calls to Map will use the
// supplied physical frame allocator to initialize missing page tables at each
// paging level supported by the MMU.
func Map(page Page, frame pmm.Frame, flags PageTableEntryFlag, allocFn FrameAllocatorFn) *kernel.Error {
	mustBeInitialized()

	var err *kernel.Error

	walk(page.Address(), func(pteLevel uint8, table PageTable, index uintptr) bool {
		pte := table.Entry(index)

		// If we reached the last level all we need to do is to map the
		// frame in place and flag it as present and flush its TLB entry
		if pteLevel == pageLevels-1 {
			pte = 0
			pte.SetFrame(frame)
			pte.SetFlags(FlagPresent | flags)
			table.SetEntry(index, pte)
			flushTLBEntryFn(page.Address())
			return true
		}

		if pte.HasFlags(FlagPresent | FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}

		// Next table does not yet exist; we need to allocate a
		// physical frame for it, clear its contents and link it.
		if !pte.HasFlags(FlagPresent) {
			var newTableFrame pmm.Frame
			newTableFrame, err = allocFn()
			if err != nil {
				return false
			}

			tableAt(newTableFrame.Address()).clear()

			pte = 0
			pte.SetFrame(newTableFrame)
			pte.SetFlags(FlagPresent | FlagRW)
			table.SetEntry(index, pte)
		}

		return true
	})

	return err
}

// Unmap removes a mapping previously installed via a call to Map.
func Unmap(page Page) *kernel.Error {
	mustBeInitialized()

	var err *kernel.Error

	walk(page.Address(), func(pteLevel uint8, table PageTable, index uintptr) bool {
		pte := table.Entry(index)

		// Next table (or the page itself) is not present; this is an
		// invalid mapping
		if !pte.HasFlags(FlagPresent) {
			err = ErrInvalidMapping
			return false
		}

		// If we reached the last level all we need to do is to set the
		// page as non-present and flush its TLB entry
		if pteLevel == pageLevels-1 {
			pte.ClearFlags(FlagPresent)
			table.SetEntry(index, pte)
			flushTLBEntryFn(page.Address())
			return true
		}

		if pte.HasFlags(FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}

		return true
	})

	return err
}
