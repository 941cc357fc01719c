// Package kmain contains the kernel entrypoint that brings up the interrupt
// handling, memory management and keyboard subsystems.
package kmain

import (
	"minircore/kernel"
	"minircore/kernel/cpu"
	"minircore/kernel/driver/keyboard"
	"minircore/kernel/driver/pic"
	"minircore/kernel/hal"
	"minircore/kernel/hal/multiboot"
	"minircore/kernel/irq"
	"minircore/kernel/kfmt"
	"minircore/kernel/mem"
	"minircore/kernel/mem/pmm"
	"minircore/kernel/mem/pmm/allocator"
	"minircore/kernel/mem/vmm"
)

const (
	// exampleMappingAddr is an otherwise unused virtual address that gets
	// mapped to the EGA text buffer to show that Map works.
	exampleMappingAddr = uintptr(0x4444_4444_0000)

	// exampleMappingOffset selects the framebuffer cell (row 20, column 0)
	// that receives the example text.
	exampleMappingOffset = 20 * 80 * 2

	// exampleText holds "New!" as four white-on-black EGA cells.
	exampleText = uint64(0xf021_f077_f065_f04e)
)

var (
	pics    pic.Chained
	decoder keyboard.Decoder

	// cmdLineOptionFn is mocked by tests.
	cmdLineOptionFn = multiboot.CmdLineOption
)

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. This function is invoked by the rt0 assembly code
// after setting up the GDT and a minimal g0 struct that allows Go code to
// run on the stack allocated by the assembly code.
//
// The rt0 code passes the address of the multiboot info payload provided by
// the bootloader, the virtual address where all physical memory is mapped
// and the physical addresses for the kernel start/end.
//
// Kmain never returns; once the subsystems are up it idles the CPU between
// interrupts.
//
//go:noinline
func Kmain(multibootInfoPtr, physMemOffset, kernelStart, kernelEnd uintptr) {
	multiboot.SetInfoPtr(multibootInfoPtr)

	// Without a text-mode terminal output stays in the early print buffer.
	if err := hal.InitTerminal(physMemOffset); err == nil {
		kfmt.SetOutputSink(hal.ActiveTerminal)
	}

	w := kfmt.PrefixWriter{Sink: kfmt.GetOutputSink(), Prefix: []byte("[kmain] ")}
	kfmt.Fprintf(&w, "This is a minircore!\n")
	if cpu.IsIntel() {
		kfmt.Fprintf(&w, "running on an Intel CPU\n")
	}

	irqOpts, printMemMap := parseOptions()

	allocator.Init(kernelStart, kernelEnd)
	if printMemMap {
		allocator.PrintMemoryMap()
	}
	vmm.Init(physMemOffset)

	var err *kernel.Error
	if err = pics.Remap(irq.PrimaryPICOffset, irq.SecondaryPICOffset); err != nil {
		panic(err)
	}

	// Only the timer (line 0) and keyboard (line 1) IRQs have handlers
	pics.Disable()
	if err = pics.ClearMask(0); err != nil {
		panic(err)
	} else if err = pics.ClearMask(1); err != nil {
		panic(err)
	}

	decoder.Init(keyboard.Ignore)
	if err = irq.Install(&pics, &decoder, irqOpts); err != nil {
		panic(err)
	}

	if err = mapExampleText(); err != nil {
		panic(err)
	}

	cpu.EnableInterrupts()
	kfmt.Fprintf(&w, "It did not crash!\n")

	for {
		cpu.Idle()
	}
}

// parseOptions reads the kernel command line options that control the IRQ
// handlers and the boot log.
func parseOptions() (irq.Options, bool) {
	var (
		opts        irq.Options
		printMemMap bool
	)

	if val, ok := cmdLineOptionFn("irq.ticks"); ok {
		opts.TickOutput = isEnabled(val)
	}

	if val, ok := cmdLineOptionFn("mem.map"); ok {
		printMemMap = isEnabled(val)
	}

	return opts, printMemMap
}

// isEnabled returns true for the values that turn on a boolean option. A
// bare option (empty value) counts as enabled.
func isEnabled(val string) bool {
	switch val {
	case "", "on", "1", "true":
		return true
	default:
		return false
	}
}

// mapExampleText maps exampleMappingAddr to the EGA framebuffer, writes
// "New!" through the new mapping and checks that the translator resolves
// it to the framebuffer frame.
func mapExampleText() *kernel.Error {
	page := vmm.PageFromAddress(exampleMappingAddr)
	frame := pmm.FrameFromAddress(0xb8000)

	if err := vmm.Map(page, frame, vmm.FlagPresent|vmm.FlagRW, allocator.AllocFrame); err != nil {
		return err
	}

	mem.RegionAt(exampleMappingAddr, mem.PageSize).Store64(exampleMappingOffset, exampleText)

	physAddr, err := vmm.Translate(exampleMappingAddr)
	if err != nil {
		return err
	}

	w := kfmt.PrefixWriter{Sink: kfmt.GetOutputSink(), Prefix: []byte("[kmain] ")}
	kfmt.Fprintf(&w, "mapped 0x%x to physical address 0x%x\n", exampleMappingAddr, physAddr)

	return nil
}
