// Package vmm translates virtual addresses by walking the active 4-level page
// tables. All physical memory is expected to be mapped at a fixed virtual
// offset (see Init) which is how the walker reaches each page table frame.
package vmm

import (
	"minircore/kernel"
	"minircore/kernel/cpu"
)

var (
	// physMemOffset is the virtual address where physical address 0 is
	// mapped.
	physMemOffset uintptr
	initialized   bool

	// the following functions are mocked by tests and are automatically
	// inlined by the compiler.
	activePDTFn     = cpu.ActivePDT
	flushTLBEntryFn = cpu.FlushTLBEntry

	// ErrInvalidMapping is returned when trying to lookup a virtual memory address that is not yet mapped.
	ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "virtual address does not point to a mapped physical page"}

	errNoHugePageSupport   = &kernel.Error{Module: "vmm", Message: "huge pages are not supported"}
	errHugePageUnsupported = &kernel.Error{Module: "vmm", Message: "translation of addresses inside huge pages is not supported"}
	errNotInitialized      = &kernel.Error{Module: "vmm", Message: "page tables accessed before vmm.Init"}
)

// Init records the virtual address at which the bootloader mapped the whole
// physical address space. It must be called before any other function in
// this package.
func Init(physicalMemoryOffset uintptr) {
	physMemOffset = physicalMemoryOffset
	initialized = true
}

// ActiveTopLevelTable returns the P4 table that is currently loaded in CR3.
func ActiveTopLevelTable() PageTable {
	mustBeInitialized()
	return tableAt(activePDTFn())
}

func mustBeInitialized() {
	if !initialized {
		panic(errNotInitialized)
	}
}
