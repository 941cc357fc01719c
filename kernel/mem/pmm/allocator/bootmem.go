// Package allocator hands out physical memory frames during boot.
package allocator

import (
	"minircore/kernel"
	"minircore/kernel/hal/multiboot"
	"minircore/kernel/kfmt"
	"minircore/kernel/mem"
	"minircore/kernel/mem/pmm"
)

var (
	// earlyAllocator is the boot mem allocator instance used by the
	// package-level Init and AllocFrame helpers.
	earlyAllocator BootMemAllocator

	// ErrOutOfMemory is returned by AllocFrame once every usable frame
	// has been handed out.
	ErrOutOfMemory = &kernel.Error{Module: "boot_mem_alloc", Message: "out of memory"}

	errNotInitialized = &kernel.Error{Module: "boot_mem_alloc", Message: "allocator used before Init"}
)

// RegionVisitorFn iterates the firmware memory map. multiboot.VisitMemRegions
// is the production implementation.
type RegionVisitorFn func(multiboot.MemRegionVisitor)

// BootMemAllocator implements a rudimentary physical memory allocator which is
// used to bootstrap the kernel.
//
// The allocator treats the firmware memory map as an ordered sequence of
// usable frames: the page-aligned parts of each region flagged as available,
// minus the frames occupied by the kernel image. Allocations are tracked via a
// cursor into that sequence which only ever moves forward; allocated frames
// cannot be freed.
//
// The usable frame sequence is not cached. Each AllocFrame call walks the
// memory map again to find the frame at the cursor position.
type BootMemAllocator struct {
	visitRegions RegionVisitorFn

	// next is the index of the next frame to hand out.
	next uint64

	// Keep track of kernel location so we exclude this region.
	kernelStartAddr, kernelEndAddr   uintptr
	kernelStartFrame, kernelEndFrame pmm.Frame
}

// Init captures the memory map source, resets the allocation cursor and
// records the physical address range occupied by the kernel image. The caller
// must ensure that the memory map is accurate and that nothing else hands out
// frames from the same physical memory.
func (alloc *BootMemAllocator) Init(visitFn RegionVisitorFn, kernelStart, kernelEnd uintptr) {
	alloc.visitRegions = visitFn
	alloc.next = 0

	// round down kernel start to the nearest page and round up kernel end
	// to the nearest page. kernelEndFrame is exclusive.
	alloc.kernelStartAddr = kernelStart
	alloc.kernelEndAddr = kernelEnd
	alloc.kernelStartFrame = pmm.FrameFromAddress(mem.PageAlignDown(kernelStart))
	alloc.kernelEndFrame = pmm.FrameFromAddress(mem.PageAlignUp(kernelEnd))
}

// AllocFrame reserves the next usable frame. It returns ErrOutOfMemory once
// all usable frames have been handed out; exhaustion is an ordinary outcome
// that callers are expected to handle.
//
// Calling AllocFrame before Init is a kernel bug and causes a panic.
func (alloc *BootMemAllocator) AllocFrame() (pmm.Frame, *kernel.Error) {
	if alloc.visitRegions == nil {
		panic(errNotInitialized)
	}

	var (
		frame = pmm.InvalidFrame
		skip  = alloc.next
	)

	alloc.VisitUsableRanges(func(start, end pmm.Frame) bool {
		if count := uint64(end - start); skip >= count {
			skip -= count
			return true
		}

		frame = start + pmm.Frame(skip)
		return false
	})

	if !frame.Valid() {
		return pmm.InvalidFrame, ErrOutOfMemory
	}

	alloc.next++
	return frame, nil
}

// UsableFrames returns the total number of frames that the allocator can hand
// out, including the ones that have already been allocated.
func (alloc *BootMemAllocator) UsableFrames() uint64 {
	var total uint64
	alloc.VisitUsableRanges(func(start, end pmm.Frame) bool {
		total += uint64(end - start)
		return true
	})

	return total
}

// AllocatedFrames returns the number of frames handed out since Init.
func (alloc *BootMemAllocator) AllocatedFrames() uint64 {
	return alloc.next
}

// VisitUsableRanges invokes visitor for each [start, end) run of usable frames
// in memory map order, including frames that have already been allocated.
// The visitor returns false to stop the scan.
func (alloc *BootMemAllocator) VisitUsableRanges(visitor func(start, end pmm.Frame) bool) {
	var keepGoing = true

	alloc.visitRegions(func(region *multiboot.MemoryMapEntry) bool {
		// Ignore reserved regions and regions smaller than a single page
		if region.Type != multiboot.MemAvailable || region.Length < uint64(mem.PageSize) {
			return true
		}

		// Reported addresses may not be page-aligned; round up to get
		// the start frame and round down to get the end frame
		start := pmm.FrameFromAddress(mem.PageAlignUp(uintptr(region.PhysAddress)))
		end := pmm.FrameFromAddress(mem.PageAlignDown(uintptr(region.PhysAddress + region.Length)))
		if start >= end {
			return true
		}

		// The kernel image may be loaded inside an available region;
		// carve it out and visit what remains on either side.
		if alloc.kernelStartFrame < end && alloc.kernelEndFrame > start {
			if alloc.kernelStartFrame > start {
				if keepGoing = visitor(start, alloc.kernelStartFrame); !keepGoing {
					return false
				}
			}

			if alloc.kernelEndFrame < end {
				keepGoing = visitor(alloc.kernelEndFrame, end)
			}
			return keepGoing
		}

		keepGoing = visitor(start, end)
		return keepGoing
	})
}

// PrintMemoryMap scans the memory region information provided by the
// bootloader and prints out the system's memory map.
func (alloc *BootMemAllocator) PrintMemoryMap() {
	if alloc.visitRegions == nil {
		panic(errNotInitialized)
	}

	w := kfmt.PrefixWriter{Sink: kfmt.GetOutputSink(), Prefix: []byte("[boot_mem_alloc] ")}

	kfmt.Fprintf(&w, "system memory map:\n")
	var totalFree mem.Size
	alloc.visitRegions(func(region *multiboot.MemoryMapEntry) bool {
		kfmt.Fprintf(&w, "\t[0x%10x - 0x%10x], size: %10d, type: %s\n", region.PhysAddress, region.PhysAddress+region.Length, region.Length, region.Type.String())

		if region.Type == multiboot.MemAvailable {
			totalFree += mem.Size(region.Length)
		}
		return true
	})
	kfmt.Fprintf(&w, "available memory: %dKb\n", uint64(totalFree/mem.Kb))
	kfmt.Fprintf(&w, "kernel loaded at 0x%x - 0x%x\n", alloc.kernelStartAddr, alloc.kernelEndAddr)
	kfmt.Fprintf(&w, "size: %d bytes, reserved pages: %d\n",
		uint64(alloc.kernelEndAddr-alloc.kernelStartAddr),
		uint64(alloc.kernelEndFrame-alloc.kernelStartFrame),
	)
	kfmt.Fprintf(&w, "usable frames: %d\n", alloc.UsableFrames())
}

// Init sets up the kernel's boot memory allocator using the memory map
// supplied by the bootloader.
func Init(kernelStart, kernelEnd uintptr) {
	earlyAllocator.Init(multiboot.VisitMemRegions, kernelStart, kernelEnd)
}

// AllocFrame reserves the next usable frame from the boot memory allocator.
func AllocFrame() (pmm.Frame, *kernel.Error) {
	return earlyAllocator.AllocFrame()
}

// PrintMemoryMap prints the memory map seen by the boot memory allocator.
func PrintMemoryMap() {
	earlyAllocator.PrintMemoryMap()
}
