package gate

import (
	"encoding/binary"
	"minircore/kernel/mem"
	"unsafe"
)

const (
	// DoubleFaultISTIndex is the interrupt stack table slot that points to
	// the dedicated double fault stack.
	DoubleFaultISTIndex = 1

	// doubleFaultStackSize must be large enough for the double fault
	// handler to print a register dump.
	doubleFaultStackSize = 20 * mem.Kb

	gdtCodeSegment = 0x00af9a000000ffff
	gdtDataSegment = 0x00cf92000000ffff

	tssSelector = 0x18

	// tssTypeAvailable marks a present 64-bit available TSS descriptor.
	tssTypeAvailable = 0x89
)

var (
	// The 64-bit TSS is 104 bytes long and its 64-bit fields are not
	// naturally aligned so it is stored as a list of 32-bit words.
	tss [26]uint32

	// The GDT contains a null descriptor, the kernel code and data
	// segments and the 16-byte TSS descriptor.
	gdt           [5]uint64
	gdtDescriptor [10]byte

	doubleFaultStack [doubleFaultStackSize]byte
)

// initTSS points the double fault IST slot to the top of the double fault
// stack.
func initTSS() {
	for i := range tss {
		tss[i] = 0
	}

	stackTop := uintptr(unsafe.Pointer(&doubleFaultStack[0])) + uintptr(doubleFaultStackSize)
	setIST(DoubleFaultISTIndex, stackTop&^0xf)

	// No I/O permission bitmap
	tss[25] = uint32(unsafe.Sizeof(tss)) << 16
}

// setIST stores addr in the 1-based interrupt stack table slot index.
func setIST(index int, addr uintptr) {
	word := 9 + 2*(index-1)
	tss[word] = uint32(addr)
	tss[word+1] = uint32(addr >> 32)
}

// getIST returns the address stored in the 1-based interrupt stack table
// slot index.
func getIST(index int) uintptr {
	word := 9 + 2*(index-1)
	return uintptr(tss[word]) | uintptr(tss[word+1])<<32
}

// installGDT populates the GDT, loads it and loads the task register with
// the TSS selector.
func installGDT() {
	tssBase := uint64(uintptr(unsafe.Pointer(&tss[0])))
	tssLimit := uint64(unsafe.Sizeof(tss) - 1)

	gdt[0] = 0
	gdt[1] = gdtCodeSegment
	gdt[2] = gdtDataSegment
	gdt[3] = tssLimit&0xffff |
		(tssBase&0xffffff)<<16 |
		uint64(tssTypeAvailable)<<40 |
		(tssLimit>>16&0xf)<<48 |
		(tssBase>>24&0xff)<<56
	gdt[4] = tssBase >> 32

	binary.LittleEndian.PutUint16(gdtDescriptor[0:], uint16(unsafe.Sizeof(gdt)-1))
	binary.LittleEndian.PutUint64(gdtDescriptor[2:], uint64(uintptr(unsafe.Pointer(&gdt[0]))))

	lgdtFn(uintptr(unsafe.Pointer(&gdtDescriptor[0])))
	ltrFn(tssSelector)
}
