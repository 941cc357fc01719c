// Package pic drives the pair of chained 8259 programmable interrupt
// controllers found on PC compatible machines.
package pic

import (
	"minircore/kernel"
	"minircore/kernel/cpu"
	"minircore/kernel/sync"
)

const (
	primaryCmdPort    = uint16(0x20)
	primaryDataPort   = uint16(0x21)
	secondaryCmdPort  = uint16(0xA0)
	secondaryDataPort = uint16(0xA1)

	// ioWaitPort is an unused port; writing to it takes long enough for
	// the controllers to process the previous command.
	ioWaitPort = uint16(0x80)

	// icw1Init starts the initialization sequence and announces that an
	// ICW4 word will follow.
	icw1Init = uint8(0x11)

	// icw4Mode8086 selects 8086/88 mode.
	icw4Mode8086 = uint8(0x01)

	// cascadeLine is the primary controller input that the secondary
	// controller is wired to.
	cascadeLine = uint8(2)

	cmdEndOfInterrupt = uint8(0x20)

	// linesPerController is the number of IRQ lines served by each 8259.
	linesPerController = 8

	// firstUsableVector is the first vector that is not reserved for CPU
	// exceptions.
	firstUsableVector = 32
)

var (
	// ErrInvalidOffset is returned by Remap when the requested vector
	// offsets are not 8-aligned or overlap the CPU exception vectors or each
	// other.
	ErrInvalidOffset = &kernel.Error{Module: "pic", Message: "invalid interrupt vector offset"}

	// ErrInvalidLine is returned when an IRQ line outside [0, 16) is masked
	// or unmasked.
	ErrInvalidLine = &kernel.Error{Module: "pic", Message: "invalid IRQ line"}

	// the following functions are mocked by tests and are automatically
	// inlined by the compiler.
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte
)

type controller struct {
	offset   uint8
	cmdPort  uint16
	dataPort uint16
}

func (c *controller) handles(vector uint8) bool {
	return c.offset != 0 && vector >= c.offset && vector-c.offset < linesPerController
}

func (c *controller) endOfInterrupt() {
	portWriteByteFn(c.cmdPort, cmdEndOfInterrupt)
}

// Chained represents a primary 8259 controller with a secondary controller
// cascaded through its IRQ 2 input. The controllers raise hardware IRQ lines
// 0-7 and 8-15 respectively.
//
// All port I/O happens with the controller lock held. The zero value is ready
// for use but does not handle any vector until Remap is called.
type Chained struct {
	lock      sync.Spinlock
	primary   controller
	secondary controller
}

// Remap reprograms the controllers so IRQ lines 0-7 raise vectors
// [primaryOffset, primaryOffset+8) and lines 8-15 raise vectors
// [secondaryOffset, secondaryOffset+8). The current line masks are preserved.
//
// Remap must be called before any IRQ line is unmasked. In 8086 mode the
// controllers ignore the low 3 bits of ICW2, so offsets must be multiples of
// 8. Unaligned offsets and offsets that overlap the 32 CPU exception vectors
// or each other are rejected with ErrInvalidOffset and leave the controllers
// untouched.
func (p *Chained) Remap(primaryOffset, secondaryOffset uint8) *kernel.Error {
	if !validOffset(primaryOffset) || !validOffset(secondaryOffset) ||
		absDiff(primaryOffset, secondaryOffset) < linesPerController {
		return ErrInvalidOffset
	}

	p.lock.Acquire()
	defer p.lock.Release()

	p.primary = controller{offset: primaryOffset, cmdPort: primaryCmdPort, dataPort: primaryDataPort}
	p.secondary = controller{offset: secondaryOffset, cmdPort: secondaryCmdPort, dataPort: secondaryDataPort}

	primaryMask := portReadByteFn(primaryDataPort)
	secondaryMask := portReadByteFn(secondaryDataPort)

	// ICW1: start the initialization sequence in cascade mode
	writeAndWait(primaryCmdPort, icw1Init)
	writeAndWait(secondaryCmdPort, icw1Init)

	// ICW2: vector offsets
	writeAndWait(primaryDataPort, primaryOffset)
	writeAndWait(secondaryDataPort, secondaryOffset)

	// ICW3: the primary expects the secondary on its IRQ 2 input (bit
	// mask) and the secondary gets its cascade identity (line number).
	writeAndWait(primaryDataPort, 1<<cascadeLine)
	writeAndWait(secondaryDataPort, cascadeLine)

	// ICW4
	writeAndWait(primaryDataPort, icw4Mode8086)
	writeAndWait(secondaryDataPort, icw4Mode8086)

	portWriteByteFn(primaryDataPort, primaryMask)
	portWriteByteFn(secondaryDataPort, secondaryMask)

	return nil
}

// HandlesInterrupt returns true if vector is raised by one of the chained
// controllers.
func (p *Chained) HandlesInterrupt(vector uint8) bool {
	p.lock.Acquire()
	defer p.lock.Release()

	return p.primary.handles(vector) || p.secondary.handles(vector)
}

// NotifyEndOfInterrupt acknowledges the interrupt identified by vector so the
// controllers resume delivering interrupts on its line. IRQs raised by the
// secondary controller arrive through the primary controller's cascade input
// so both controllers are acknowledged. Vectors that do not belong to the
// controllers are ignored.
//
// Interrupt handlers must call NotifyEndOfInterrupt exactly once before
// returning; otherwise the line (and all lower priority lines) stay blocked.
func (p *Chained) NotifyEndOfInterrupt(vector uint8) {
	p.lock.Acquire()
	defer p.lock.Release()

	switch {
	case p.secondary.handles(vector):
		p.secondary.endOfInterrupt()
		p.primary.endOfInterrupt()
	case p.primary.handles(vector):
		p.primary.endOfInterrupt()
	}
}

// SetMask masks IRQ line (0-15) so the controllers stop raising it.
func (p *Chained) SetMask(line uint8) *kernel.Error {
	if line >= 2*linesPerController {
		return ErrInvalidLine
	}

	p.lock.Acquire()
	defer p.lock.Release()

	port, bit := lineToPort(line)
	portWriteByteFn(port, portReadByteFn(port)|bit)
	return nil
}

// ClearMask unmasks IRQ line (0-15). Unmasking a line served by the
// secondary controller also unmasks the cascade line on the primary
// controller.
func (p *Chained) ClearMask(line uint8) *kernel.Error {
	if line >= 2*linesPerController {
		return ErrInvalidLine
	}

	p.lock.Acquire()
	defer p.lock.Release()

	port, bit := lineToPort(line)
	portWriteByteFn(port, portReadByteFn(port)&^bit)

	if line >= linesPerController {
		portWriteByteFn(primaryDataPort, portReadByteFn(primaryDataPort)&^(1<<cascadeLine))
	}
	return nil
}

// Masks returns the interrupt mask registers of the primary and secondary
// controllers. A set bit means that the line is masked.
func (p *Chained) Masks() (uint8, uint8) {
	p.lock.Acquire()
	defer p.lock.Release()

	return portReadByteFn(primaryDataPort), portReadByteFn(secondaryDataPort)
}

// Disable masks all IRQ lines on both controllers.
func (p *Chained) Disable() {
	p.lock.Acquire()
	defer p.lock.Release()

	portWriteByteFn(primaryDataPort, 0xff)
	portWriteByteFn(secondaryDataPort, 0xff)
}

func lineToPort(line uint8) (uint16, uint8) {
	if line < linesPerController {
		return primaryDataPort, 1 << line
	}

	return secondaryDataPort, 1 << (line - linesPerController)
}

func writeAndWait(port uint16, val uint8) {
	portWriteByteFn(port, val)
	portWriteByteFn(ioWaitPort, 0)
}

func validOffset(offset uint8) bool {
	return offset&(linesPerController-1) == 0 &&
		offset >= firstUsableVector && offset <= 0xff-linesPerController+1
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
