package irq

import (
	"io"
	"minircore/kernel"
	"minircore/kernel/driver/keyboard"
	"minircore/kernel/gate"
	"minircore/kernel/kfmt"
)

// PageFaultErrorCode describes the error code pushed by the CPU when a page
// fault occurs.
type PageFaultErrorCode uint64

const (
	// ProtectionViolation is set if the fault was caused by a page-level
	// protection violation; otherwise the page was not present.
	ProtectionViolation PageFaultErrorCode = 1 << iota

	// CausedByWrite is set if the access was a write.
	CausedByWrite

	// UserMode is set if the access originated in user mode.
	UserMode

	// MalformedTable is set if a reserved bit was set in a page table
	// entry.
	MalformedTable

	// InstructionFetch is set if the fault was caused by an instruction
	// fetch.
	InstructionFetch
)

var pageFaultFlagNames = [...]string{
	"PROTECTION_VIOLATION",
	"CAUSED_BY_WRITE",
	"USER_MODE",
	"MALFORMED_TABLE",
	"INSTRUCTION_FETCH",
}

// DumpTo writes the names of the set flags separated by '|' to w.
func (c PageFaultErrorCode) DumpTo(w io.Writer) {
	if c&(1<<len(pageFaultFlagNames)-1) == 0 {
		kfmt.Fprintf(w, "NOT_PRESENT")
		return
	}

	sep := false
	for i, name := range pageFaultFlagNames {
		if c&(1<<uint(i)) == 0 {
			continue
		}

		if sep {
			kfmt.Fprintf(w, "|")
		}
		kfmt.Fprintf(w, "%s", name)
		sep = true
	}
}

var (
	errDoubleFault            = &kernel.Error{Module: "irq", Message: "double fault"}
	errGeneralProtectionFault = &kernel.Error{Module: "irq", Message: "general protection fault"}
)

func breakpointHandler(regs *gate.Registers) {
	kfmt.Printf("EXCEPTION: BREAKPOINT\n")
	regs.DumpFrameTo(kfmt.GetOutputSink())
}

func doubleFaultHandler(regs *gate.Registers) {
	kfmt.Printf("EXCEPTION: DOUBLE FAULT (code: %d)\n", regs.Info)
	panicFn(errDoubleFault, regs)
}

func generalProtectionFaultHandler(regs *gate.Registers) {
	kfmt.Printf("EXCEPTION: GENERAL PROTECTION FAULT (code: %d)\n", regs.Info)
	panicFn(errGeneralProtectionFault, regs)
}

// pageFaultHandler reports the faulting address and halts. Pages are never
// mapped on demand.
func pageFaultHandler(regs *gate.Registers) {
	w := kfmt.GetOutputSink()

	kfmt.Printf("EXCEPTION: PAGE FAULT\n")
	kfmt.Printf("Accessed Address: %16x\n", readCR2Fn())
	kfmt.Printf("Error Code: ")
	PageFaultErrorCode(regs.Info).DumpTo(w)
	kfmt.Printf("\n")
	regs.DumpFrameTo(w)

	haltLoopFn()
}

func timerHandler(_ *gate.Registers) {
	devices.lock.Acquire()
	if devices.opts.TickOutput {
		kfmt.Printf(".")
	}
	devices.pics.NotifyEndOfInterrupt(uint8(TimerVector))
	devices.lock.Release()
}

// keyboardHandler reads the pending scancode, feeds it to the decoder and
// prints the decoded key. The scancode must be read even if it is later
// dropped, otherwise the controller does not raise further interrupts.
func keyboardHandler(_ *gate.Registers) {
	scancode := portReadByteFn(keyboardDataPort)

	devices.lock.Acquire()
	if key, ok := devices.kbd.Process(scancode); ok {
		switch key.Kind {
		case keyboard.Unicode:
			kfmt.Printf("%c", key.Rune)
		case keyboard.RawKey:
			kfmt.Printf("%s", key.Code.String())
		}
	}
	devices.pics.NotifyEndOfInterrupt(uint8(KeyboardVector))
	devices.lock.Release()
}
