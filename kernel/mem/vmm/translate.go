package vmm

import "minircore/kernel"

// Translate returns the physical address that corresponds to the supplied
// virtual address or ErrInvalidMapping if the virtual address does not
// correspond to a mapped physical address.
//
// Translate does not support huge pages; running into a P3 or P2 entry that
// maps a huge page causes a panic.
func Translate(virtAddr uintptr) (uintptr, *kernel.Error) {
	mustBeInitialized()

	var (
		physAddr uintptr
		err      *kernel.Error
	)

	walk(virtAddr, func(pteLevel uint8, table PageTable, index uintptr) bool {
		pte := table.Entry(index)
		if !pte.HasFlags(FlagPresent) {
			err = ErrInvalidMapping
			return false
		}

		if pteLevel == pageLevels-1 {
			// Calculate the physical address by taking the physical frame
			// address and appending the offset from the virtual address
			physAddr = pte.Frame().Address() + PageOffset(virtAddr)
			return true
		}

		if pteLevel != 0 && pte.HasFlags(FlagHugePage) {
			panic(errHugePageUnsupported)
		}

		return true
	})

	return physAddr, err
}

// PageOffset returns the offset within the page specified by a virtual
// address.
func PageOffset(virtAddr uintptr) uintptr {
	return (virtAddr & ((1 << pageLevelShifts[pageLevels-1]) - 1))
}
