// Package gate manages the x86_64 descriptor tables (GDT, TSS and IDT) and
// routes CPU exceptions and hardware interrupts to Go handlers.
package gate

import (
	"encoding/binary"
	"minircore/kernel"
	"minircore/kernel/mem"
	"unsafe"
)

const (
	idtEntries = 256

	// kernelCodeSelector is the GDT selector of the 64-bit kernel code
	// segment.
	kernelCodeSelector = 0x08

	// gateTypeInterrupt marks a present, DPL 0, 64-bit interrupt gate.
	// Interrupts stay disabled while its handler runs.
	gateTypeInterrupt = 0x8e
)

var (
	// ErrAlreadyInitialized is raised when Init is invoked more than once.
	ErrAlreadyInitialized = &kernel.Error{Module: "gate", Message: "descriptor tables already initialized"}

	// ErrTableLoaded is raised by HandleInterrupt after the IDT has been
	// loaded by the CPU.
	ErrTableLoaded = &kernel.Error{Module: "gate", Message: "IDT is already loaded and cannot be modified"}

	// ErrNoEntryPoint is raised by HandleInterrupt for interrupt numbers
	// without an assembly entry point.
	ErrNoEntryPoint = &kernel.Error{Module: "gate", Message: "no entry point for interrupt number"}

	errUnhandledInterrupt = &kernel.Error{Module: "gate", Message: "received interrupt without a registered handler"}

	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	lidtFn = lidt
	lgdtFn = lgdt
	ltrFn  = ltr

	// entryPoints holds the functions that return the address of the
	// assembly entry point for each supported interrupt number.
	entryPoints = [idtEntries]func() uintptr{
		Breakpoint:         breakpointEntry,
		DoubleFault:        doubleFaultEntry,
		GPFException:       gpfEntry,
		PageFaultException: pageFaultEntry,
		IRQ0:               irq0Entry,
		IRQ1:               irq1Entry,
	}

	idt           [idtEntries]idtEntry
	idtDescriptor [10]byte
	handlers      [idtEntries]func(*Registers)
	initialized   bool
	loaded        bool
)

// idtEntry is an x86_64 interrupt gate descriptor.
type idtEntry struct {
	offsetLow  uint16
	selector   uint16
	ist        uint8
	typeAttr   uint8
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

func (e *idtEntry) set(entryAddr uintptr, istOffset uint8) {
	e.offsetLow = uint16(entryAddr)
	e.offsetMid = uint16(entryAddr >> 16)
	e.offsetHigh = uint32(entryAddr >> 32)
	e.selector = kernelCodeSelector
	e.ist = istOffset & 0x7
	e.typeAttr = gateTypeInterrupt
	e.reserved = 0
}

func (e *idtEntry) address() uintptr {
	return uintptr(e.offsetLow) | uintptr(e.offsetMid)<<16 | uintptr(e.offsetHigh)<<32
}

// Init installs the kernel GDT and TSS and clears the IDT. All gate entries
// start out as non-present and must be explicitly enabled via a call to
// HandleInterrupt before the IDT is loaded with Load.
func Init() {
	if initialized {
		panic(ErrAlreadyInitialized)
	}

	initTSS()
	installGDT()

	mem.Memset(uintptr(unsafe.Pointer(&idt[0])), 0, mem.Size(unsafe.Sizeof(idt)))
	for i := range handlers {
		handlers[i] = nil
	}

	initialized = true
}

// HandleInterrupt ensures that the provided handler will be invoked when a
// particular interrupt number occurs. The value of the istOffset argument
// specifies the offset in the interrupt stack table (if 0 then IST is not
// used).
func HandleInterrupt(intNumber InterruptNumber, istOffset uint8, handler func(*Registers)) {
	if loaded {
		panic(ErrTableLoaded)
	}

	entryFn := entryPoints[intNumber]
	if entryFn == nil {
		panic(ErrNoEntryPoint)
	}

	handlers[intNumber] = handler
	idt[intNumber].set(entryFn(), istOffset)
}

// Load points the CPU to the IDT. After Load returns the IDT is considered
// read-only.
func Load() {
	binary.LittleEndian.PutUint16(idtDescriptor[0:], uint16(unsafe.Sizeof(idt)-1))
	binary.LittleEndian.PutUint64(idtDescriptor[2:], uint64(uintptr(unsafe.Pointer(&idt[0]))))

	lidtFn(uintptr(unsafe.Pointer(&idtDescriptor[0])))
	loaded = true
}

// dispatchInterrupt is invoked by the common assembly entry point with a
// pointer to the saved register state.
func dispatchInterrupt(regs *Registers) {
	handler := handlers[uint8(regs.Vector)]
	if handler == nil {
		panic(errUnhandledInterrupt)
	}

	handler(regs)
}

// lidt loads the IDT pseudo-descriptor at descAddr.
func lidt(descAddr uintptr)

// lgdt loads the GDT pseudo-descriptor at descAddr and reloads the data
// segment registers with the kernel data selector.
func lgdt(descAddr uintptr)

// ltr loads the task register with the given GDT selector.
func ltr(selector uint16)

func breakpointEntry() uintptr
func doubleFaultEntry() uintptr
func gpfEntry() uintptr
func pageFaultEntry() uintptr
func irq0Entry() uintptr
func irq1Entry() uintptr

// Assembly-only gate stubs; declared here so the toolchain emits their
// argument stack maps.
func breakpointGate()
func doubleFaultGate()
func gpfGate()
func pageFaultGate()
func irq0Gate()
func irq1Gate()
func gateCommon()
