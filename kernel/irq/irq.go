// Package irq installs the kernel's exception and hardware interrupt
// handlers and connects them to the interrupt controller and keyboard
// drivers.
package irq

import (
	"minircore/kernel"
	"minircore/kernel/cpu"
	"minircore/kernel/driver/keyboard"
	"minircore/kernel/driver/pic"
	"minircore/kernel/gate"
	"minircore/kernel/kfmt"
	"minircore/kernel/sync"
)

const (
	// PrimaryPICOffset is the first vector used by the primary PIC.
	PrimaryPICOffset = 32

	// SecondaryPICOffset is the first vector used by the secondary PIC.
	SecondaryPICOffset = PrimaryPICOffset + 8

	// TimerVector is raised by the programmable interval timer (IRQ 0).
	TimerVector = gate.IRQ0

	// KeyboardVector is raised by the PS/2 keyboard controller (IRQ 1).
	KeyboardVector = gate.IRQ1

	// keyboardDataPort is the PS/2 controller port that holds the last
	// scancode.
	keyboardDataPort = 0x60
)

// InterruptController acknowledges serviced hardware interrupts.
type InterruptController interface {
	NotifyEndOfInterrupt(vector uint8)
}

var _ InterruptController = (*pic.Chained)(nil)

// Options controls optional handler behavior.
type Options struct {
	// TickOutput prints a dot for every timer interrupt.
	TickOutput bool
}

var (
	// ErrAlreadyInstalled is returned by Install if the handlers have
	// already been installed.
	ErrAlreadyInstalled = &kernel.Error{Module: "irq", Message: "interrupt handlers already installed"}

	// ErrMissingDevice is returned by Install if the controller or the
	// keyboard decoder is nil.
	ErrMissingDevice = &kernel.Error{Module: "irq", Message: "interrupt controller and keyboard decoder are required"}

	// devices holds the driver state shared by the IRQ handlers. Its lock
	// must always be acquired before the PIC lock.
	devices struct {
		lock      sync.Spinlock
		pics      InterruptController
		kbd       *keyboard.Decoder
		opts      Options
		installed bool
	}

	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	gateInitFn     = gate.Init
	gateHandleFn   = gate.HandleInterrupt
	gateLoadFn     = gate.Load
	readCR2Fn      = cpu.ReadCR2
	portReadByteFn = cpu.PortReadByte
	haltLoopFn     = haltLoop
	cpuIdleFn      = cpu.Idle
	panicFn        = kfmt.PanicWithContext
)

// Install registers the exception handlers and the timer and keyboard IRQ
// handlers and loads the IDT. The PICs must already be remapped to
// PrimaryPICOffset and SecondaryPICOffset. Install does not enable
// interrupts.
func Install(pics InterruptController, kbd *keyboard.Decoder, opts Options) *kernel.Error {
	if pics == nil || kbd == nil {
		return ErrMissingDevice
	}

	devices.lock.Acquire()
	if devices.installed {
		devices.lock.Release()
		return ErrAlreadyInstalled
	}
	devices.pics = pics
	devices.kbd = kbd
	devices.opts = opts
	devices.installed = true
	devices.lock.Release()

	gateInitFn()
	gateHandleFn(gate.Breakpoint, 0, breakpointHandler)
	gateHandleFn(gate.DoubleFault, gate.DoubleFaultISTIndex, doubleFaultHandler)
	gateHandleFn(gate.GPFException, 0, generalProtectionFaultHandler)
	gateHandleFn(gate.PageFaultException, 0, pageFaultHandler)
	gateHandleFn(TimerVector, 0, timerHandler)
	gateHandleFn(KeyboardVector, 0, keyboardHandler)
	gateLoadFn()

	return nil
}

// haltLoop idles the CPU forever. It runs inside the page fault gate where IF
// is clear, so no IRQ is serviced and only an NMI wakes HLT, after which the
// loop halts again.
func haltLoop() {
	for {
		cpuIdleFn()
	}
}
