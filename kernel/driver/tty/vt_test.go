package tty

import (
	"testing"
	"unsafe"

	"minircore/kernel/cpu"
	"minircore/kernel/driver/video/console"
)

func newTestVt(t *testing.T) (*Vt, []uint16) {
	t.Helper()

	fb := make([]uint16, 80*25)
	var cons console.Ega
	cons.Init(80, 25, uintptr(unsafe.Pointer(&fb[0])))

	var vt Vt
	vt.AttachTo(&cons)
	vt.Clear()

	return &vt, fb
}

type cellSpec struct {
	x, y    uint16
	expChar byte
}

func checkCells(t *testing.T, fb []uint16, specs []cellSpec) {
	t.Helper()

	for specIndex, spec := range specs {
		ch := byte(fb[int(spec.y)*80+int(spec.x)] & 0xFF)
		if ch != spec.expChar {
			t.Errorf("[spec %d] expected char at (%d, %d) to be %q; got %q", specIndex, spec.x, spec.y, spec.expChar, ch)
		}
	}
}

func TestVtPosition(t *testing.T) {
	specs := []struct {
		inX, inY   uint16
		expX, expY uint16
	}{
		{20, 20, 20, 20},
		{100, 20, 79, 20},
		{10, 200, 10, 24},
		{100, 100, 79, 24},
	}

	vt, _ := newTestVt(t)

	if w, h := vt.Dimensions(); w != 80 || h != 25 {
		t.Fatalf("Dimensions wrong: got %v x %v", w, h)
	}

	for specIndex, spec := range specs {
		vt.SetPosition(spec.inX, spec.inY)
		if x, y := vt.Position(); x != spec.expX || y != spec.expY {
			t.Errorf("[spec %d] expected setting position to (%d, %d) to update the position to (%d, %d); got (%d, %d)", specIndex, spec.inX, spec.inY, spec.expX, spec.expY, x, y)
		}
	}

	vt.Clear()
	if x, y := vt.Position(); x != 0 || y != 0 {
		t.Errorf("expected Clear to reset the cursor; got (%d, %d)", x, y)
	}
}

func TestVtWrite(t *testing.T) {
	t.Run("control characters", func(t *testing.T) {
		vt, fb := newTestVt(t)

		n, err := vt.Write([]byte("\b12\n\t3\n4\r567\b8"))
		if err != nil || n != 14 {
			t.Fatalf("expected Write to return (14, nil); got (%d, %v)", n, err)
		}

		// Tab spanning rows
		vt.SetPosition(78, 4)
		vt.WriteByte('\t')
		vt.WriteByte('9')

		checkCells(t, fb, []cellSpec{
			{0, 0, '1'},
			{1, 0, '2'},
			// tab
			{0, 1, ' '},
			{3, 1, ' '},
			{4, 1, '3'},
			// CR and BS
			{0, 2, '5'},
			{1, 2, '6'},
			{2, 2, '8'},
			// tab spanning 2 rows
			{78, 4, ' '},
			{79, 4, ' '},
			{0, 5, ' '},
			{1, 5, ' '},
			{2, 5, '9'},
		})

		if x, y := vt.Position(); x != 3 || y != 5 {
			t.Errorf("expected cursor to be at (3, 5); got (%d, %d)", x, y)
		}
	})

	t.Run("scroll", func(t *testing.T) {
		vt, fb := newTestVt(t)

		vt.Write([]byte("top"))
		vt.SetPosition(79, 24)
		vt.Write([]byte("!?"))

		checkCells(t, fb, []cellSpec{
			// the first row has been scrolled out
			{0, 0, ' '},
			{79, 23, '!'},
			{0, 24, '?'},
			{79, 24, ' '},
		})

		if x, y := vt.Position(); x != 1 || y != 24 {
			t.Errorf("expected cursor to be at (1, 24); got (%d, %d)", x, y)
		}
	})

	t.Run("attributes", func(t *testing.T) {
		vt, fb := newTestVt(t)

		vt.Write([]byte("x"))
		if exp, got := uint16(console.MakeAttr(defaultFg, defaultBg))<<8|'x', fb[0]; got != exp {
			t.Errorf("expected cell to contain %x; got %x", exp, got)
		}
	})

	t.Run("no console", func(t *testing.T) {
		var vt Vt
		if n, err := vt.Write([]byte("lost")); n != 4 || err != nil {
			t.Errorf("expected Write to discard output; got (%d, %v)", n, err)
		}
	})

	t.Run("lock released", func(t *testing.T) {
		vt, _ := newTestVt(t)
		vt.Write([]byte("abc"))

		if vt.lock.Held() {
			t.Error("expected terminal lock to be released after Write")
		}
	})
}

// irqConsole raises a simulated keyboard interrupt the first time a character
// is drawn. The handler echoes a key through the same terminal. It runs right
// away if the interrupt flag is set and is otherwise deferred until the flag
// is restored.
type irqConsole struct {
	*console.Ega

	vt      *Vt
	ifSet   bool
	raised  bool
	pending bool
	nested  bool
}

func (c *irqConsole) Write(ch byte, attr console.Attr, x, y uint16) {
	c.Ega.Write(ch, attr, x, y)

	if c.raised {
		return
	}
	c.raised = true

	if c.ifSet {
		// The handler would spin on the held terminal lock forever
		c.nested = true
		return
	}
	c.pending = true
}

func (c *irqConsole) deliver() {
	if c.ifSet && c.pending {
		c.pending = false
		c.vt.Write([]byte("k"))
	}
}

func TestVtWriteMasksInterrupts(t *testing.T) {
	defer func() {
		saveInterruptsFn = cpu.SaveAndDisableInterrupts
		restoreInterruptsFn = cpu.RestoreInterrupts
	}()

	fb := make([]uint16, 80*25)
	var ega console.Ega
	ega.Init(80, 25, uintptr(unsafe.Pointer(&fb[0])))

	var vt Vt
	cons := &irqConsole{Ega: &ega, vt: &vt, ifSet: true}

	saveInterruptsFn = func() uint64 {
		var flags uint64
		if cons.ifSet {
			flags = cpu.FlagInterruptEnable
		}
		cons.ifSet = false
		return flags
	}
	restoreInterruptsFn = func(flags uint64) {
		if vt.lock.Held() {
			t.Error("expected the terminal lock to be released before interrupts are restored")
		}
		cons.ifSet = flags&cpu.FlagInterruptEnable != 0
		cons.deliver()
	}

	vt.AttachTo(cons)
	vt.Clear()

	if n, err := vt.Write([]byte("It did not crash!\n")); n != 18 || err != nil {
		t.Fatalf("expected Write to return (18, nil); got (%d, %v)", n, err)
	}

	if cons.nested {
		t.Fatal("expected the interrupt to stay pending while the terminal lock is held")
	}

	if cons.pending || !cons.ifSet {
		t.Fatalf("expected the pending interrupt to be delivered once the interrupt flag was restored")
	}

	checkCells(t, fb, []cellSpec{
		{0, 0, 'I'},
		{16, 0, '!'},
		{0, 1, 'k'},
	})
}
