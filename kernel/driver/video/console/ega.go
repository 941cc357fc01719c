package console

import "unsafe"

const (
	// EgaFramebufferAddr is the physical address of the EGA text-mode
	// framebuffer.
	EgaFramebufferAddr = 0xb8000

	clearAttr = Black<<4 | LightGrey
	clearChar = byte(' ')
)

// Ega implements an EGA-compatible text console that writes directly to a
// framebuffer of 16-bit cells. Each cell holds a character in its low byte
// and an Attr in its high byte.
//
// Ega does not synchronize access to the framebuffer; callers such as
// tty.Vt serialize access.
type Ega struct {
	width  uint16
	height uint16

	fb []uint16
}

// Init sets up the console to use the framebuffer at fbAddr. The address
// must be accessible by the kernel (e.g. via the physical memory offset
// mapping).
func (cons *Ega) Init(width, height uint16, fbAddr uintptr) {
	cons.width = width
	cons.height = height
	cons.fb = unsafe.Slice((*uint16)(unsafe.Pointer(fbAddr)), int(width)*int(height))
}

// Clear clears the specified rectangular region. The region is clipped to
// the console dimensions.
func (cons *Ega) Clear(x, y, width, height uint16) {
	clr := uint16(clearAttr)<<8 | uint16(clearChar)

	if x >= cons.width || y >= cons.height {
		return
	}

	if width > cons.width-x {
		width = cons.width - x
	}
	if height > cons.height-y {
		height = cons.height - y
	}

	for row := y; row < y+height; row++ {
		rowOffset := int(row)*int(cons.width) + int(x)
		for col := 0; col < int(width); col++ {
			cons.fb[rowOffset+col] = clr
		}
	}
}

// Dimensions returns the console width and height in characters.
func (cons *Ega) Dimensions() (uint16, uint16) {
	return cons.width, cons.height
}

// Scroll moves the console contents by the given number of lines in the
// specified direction. The lines that are uncovered keep their old contents.
func (cons *Ega) Scroll(dir ScrollDir, lines uint16) {
	if lines == 0 || lines > cons.height {
		return
	}

	offset := int(lines) * int(cons.width)

	switch dir {
	case Up:
		copy(cons.fb, cons.fb[offset:])
	case Down:
		copy(cons.fb[offset:], cons.fb)
	}
}

// Write a char to the specified location. Writes outside the console are
// ignored.
func (cons *Ega) Write(ch byte, attr Attr, x, y uint16) {
	if x >= cons.width || y >= cons.height {
		return
	}

	cons.fb[int(y)*int(cons.width)+int(x)] = uint16(attr)<<8 | uint16(ch)
}
