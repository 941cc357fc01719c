// Package cpu exposes the privileged amd64 instructions used by the kernel:
// interrupt flag control, halting, control register access and port I/O.
package cpu

var (
	cpuidFn = ID
)

// EnableInterrupts enables interrupt handling (STI).
func EnableInterrupts()

// DisableInterrupts disables interrupt handling (CLI).
func DisableInterrupts()

// FlagInterruptEnable is the RFLAGS.IF bit.
const FlagInterruptEnable = 1 << 9

// SaveAndDisableInterrupts clears RFLAGS.IF and returns the RFLAGS value from
// before the change. Pass the result to RestoreInterrupts to bring IF back to
// its previous state. Both use POPFQ, which leaves IF untouched instead of
// faulting when executed outside ring 0.
func SaveAndDisableInterrupts() uint64

// RestoreInterrupts loads RFLAGS with a value returned by
// SaveAndDisableInterrupts.
func RestoreInterrupts(flags uint64)

// Halt disables interrupts and stops instruction execution. Halt never
// returns; an NMI that wakes the CPU sends it straight back to HLT.
func Halt()

// Idle halts the CPU until the next interrupt arrives and then returns.
func Idle()

// Breakpoint raises a breakpoint exception (INT3).
func Breakpoint()

// ActivePDT returns the physical address of the currently active top-level
// page table (CR3 with the flag bits masked off).
func ActivePDT() uintptr

// FlushTLBEntry flushes the TLB entry for a particular virtual address.
func FlushTLBEntry(virtAddr uintptr)

// ReadCR2 returns the value stored in the CR2 register. The CPU loads CR2
// with the faulting virtual address when raising a page fault.
func ReadCR2() uint64

// ID returns information about the CPU and its features. It
// is implemented as a CPUID instruction with EAX=leaf and
// returns the values in EAX, EBX, ECX and EDX.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// IsIntel returns true if the code is running on an Intel processor.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8
