// Package tty implements terminals that render a byte stream on a console.
package tty

import (
	"minircore/kernel/cpu"
	"minircore/kernel/driver/video/console"
	"minircore/kernel/sync"
)

const (
	defaultFg = console.LightGrey
	defaultBg = console.Black
	tabWidth  = 4
)

var (
	// the following functions are mocked by tests.
	saveInterruptsFn    = cpu.SaveAndDisableInterrupts
	restoreInterruptsFn = cpu.RestoreInterrupts
)

// Vt implements a simple terminal that can process LF, CR, TAB and BS
// characters. The terminal uses a console device for its output. Vt is
// safe to use from interrupt handlers: all operations run with the terminal
// lock held and interrupts disabled, so a handler never finds the lock taken
// by the code it interrupted.
type Vt struct {
	lock sync.Spinlock
	cons console.Console

	width  uint16
	height uint16

	curX    uint16
	curY    uint16
	curAttr console.Attr
}

// AttachTo links the terminal with the specified console device and resets
// the cursor to the top-left corner.
func (t *Vt) AttachTo(cons console.Console) {
	defer t.release(t.acquire())

	t.cons = cons
	t.width, t.height = cons.Dimensions()
	t.curX, t.curY = 0, 0
	t.curAttr = console.MakeAttr(defaultFg, defaultBg)
}

// Dimensions returns the width and height of the terminal in characters.
func (t *Vt) Dimensions() (uint16, uint16) {
	return t.width, t.height
}

// Clear clears the terminal and moves the cursor to the top-left corner.
func (t *Vt) Clear() {
	defer t.release(t.acquire())

	t.cons.Clear(0, 0, t.width, t.height)
	t.curX, t.curY = 0, 0
}

// Position returns the current cursor position (x, y).
func (t *Vt) Position() (uint16, uint16) {
	defer t.release(t.acquire())

	return t.curX, t.curY
}

// SetPosition sets the current cursor position to (x,y). Coordinates outside
// the terminal are clamped.
func (t *Vt) SetPosition(x, y uint16) {
	defer t.release(t.acquire())

	if x >= t.width {
		x = t.width - 1
	}

	if y >= t.height {
		y = t.height - 1
	}

	t.curX, t.curY = x, y
}

// Write implements io.Writer. Writing to a terminal without an attached
// console discards the data.
func (t *Vt) Write(data []byte) (int, error) {
	defer t.release(t.acquire())

	if t.cons == nil {
		return len(data), nil
	}

	for _, b := range data {
		t.writeByte(b)
	}

	return len(data), nil
}

// acquire disables interrupts and takes the terminal lock. It returns the
// saved RFLAGS value that release needs.
func (t *Vt) acquire() uint64 {
	flags := saveInterruptsFn()
	t.lock.Acquire()
	return flags
}

func (t *Vt) release(flags uint64) {
	t.lock.Release()
	restoreInterruptsFn(flags)
}

// WriteByte implements io.ByteWriter.
func (t *Vt) WriteByte(b byte) error {
	_, err := t.Write([]byte{b})
	return err
}

func (t *Vt) writeByte(b byte) {
	switch b {
	case '\r':
		t.curX = 0
	case '\n':
		t.curX = 0
		t.lf()
	case '\b':
		if t.curX > 0 {
			t.curX--
			t.cons.Write(' ', t.curAttr, t.curX, t.curY)
		}
	case '\t':
		for i := 0; i < tabWidth; i++ {
			t.put(' ')
		}
	default:
		t.put(b)
	}
}

// put writes b at the cursor position and advances the cursor, wrapping to
// the next line when the end of the current line is reached.
func (t *Vt) put(b byte) {
	t.cons.Write(b, t.curAttr, t.curX, t.curY)
	t.curX++
	if t.curX == t.width {
		t.curX = 0
		t.lf()
	}
}

// lf advances the y coordinate of the terminal cursor by one line scrolling
// the terminal contents if the end of the last terminal line is reached.
func (t *Vt) lf() {
	if t.curY+1 < t.height {
		t.curY++
		return
	}

	t.cons.Scroll(console.Up, 1)
	t.cons.Clear(0, t.height-1, t.width, 1)
}
