package vmm

import (
	"minircore/kernel"
	"minircore/kernel/mem/pmm"
	"testing"
)

func TestMapAmd64(t *testing.T) {
	m := newFakePhysMem(t, 8)
	m.setActivePDT(0)
	m.nextFree = 1

	var flushedAddrs []uintptr
	flushTLBEntryFn = func(virtAddr uintptr) {
		flushedAddrs = append(flushedAddrs, virtAddr)
	}

	page := PageFromAddress(0x8080604400)
	if err := Map(page, pmm.Frame(123), FlagRW, m.allocFrame); err != nil {
		t.Fatal(err)
	}

	// One table was allocated for each of the P3, P2 and P1 levels
	if exp, got := pmm.Frame(4), m.nextFree; got != exp {
		t.Fatalf("expected Map to allocate 3 tables; next free frame is %d", got)
	}

	levelIndices := [pageLevels]uintptr{1, 2, 3, 4}
	table := ActiveTopLevelTable()
	for level := 0; level < pageLevels; level++ {
		pte := table.Entry(levelIndices[level])
		if !pte.HasFlags(FlagPresent | FlagRW) {
			t.Errorf("[pte at level %d] expected entry to have FlagPresent and FlagRW set", level)
		}

		if level == pageLevels-1 {
			if got := pte.Frame(); got != pmm.Frame(123) {
				t.Errorf("expected P1 entry to point to frame 123; got %d", got)
			}
			break
		}

		if exp, got := pmm.Frame(level+1), pte.Frame(); got != exp {
			t.Errorf("[pte at level %d] expected entry to point to frame %d; got %d", level, exp, got)
		}

		// Newly allocated tables must be cleared apart from the
		// entry that Map populated
		next := tableAt(pte.Frame().Address())
		for index := uintptr(0); index < entriesPerTable; index++ {
			if index != levelIndices[level+1] && next.Entry(index) != 0 {
				t.Errorf("[table at level %d] expected entry %d to be cleared", level+1, index)
				break
			}
		}
		table = next
	}

	if len(flushedAddrs) != 1 || flushedAddrs[0] != page.Address() {
		t.Fatalf("expected a single TLB flush for 0x%x; got %v", page.Address(), flushedAddrs)
	}

	if physAddr, err := Translate(0x8080604400); err != nil || physAddr != pmm.Frame(123).Address()+0x400 {
		t.Fatalf("expected mapped address to translate to 0x%x; got 0x%x, err %v", pmm.Frame(123).Address()+0x400, physAddr, err)
	}

	// Mapping a neighboring page reuses the existing tables
	if err := Map(page+1, pmm.Frame(124), FlagRW, m.allocFrame); err != nil {
		t.Fatal(err)
	}

	if exp, got := pmm.Frame(4), m.nextFree; got != exp {
		t.Fatalf("expected Map to reuse existing tables; next free frame is %d", got)
	}
}

func TestMapErrors(t *testing.T) {
	t.Run("allocator error", func(t *testing.T) {
		m := newFakePhysMem(t, 2)
		m.setActivePDT(0)
		m.nextFree = 1

		// Only one frame left; the P2 table cannot be allocated
		if err := Map(PageFromAddress(0x8080604400), pmm.Frame(1), FlagRW, m.allocFrame); err != errOutOfTestFrames {
			t.Fatalf("expected to get error: %v; got %v", errOutOfTestFrames, err)
		}
	})

	t.Run("huge page", func(t *testing.T) {
		m := newFakePhysMem(t, 4)
		m.setActivePDT(0)
		m.setEntry(0, 1, 1, FlagPresent|FlagRW)
		m.setEntry(1, 2, 2, FlagPresent|FlagRW|FlagHugePage)

		allocFn := func() (pmm.Frame, *kernel.Error) {
			t.Fatal("unexpected call to allocFn")
			return pmm.InvalidFrame, nil
		}

		if err := Map(PageFromAddress(0x8080604400), pmm.Frame(1), FlagRW, allocFn); err != errNoHugePageSupport {
			t.Fatalf("expected to get error: %v; got %v", errNoHugePageSupport, err)
		}

		if err := Unmap(PageFromAddress(0x8080604400)); err != errNoHugePageSupport {
			t.Fatalf("expected to get error: %v; got %v", errNoHugePageSupport, err)
		}
	})
}

func TestUnmapAmd64(t *testing.T) {
	m := newFakePhysMem(t, 8)
	m.setActivePDT(0)
	m.nextFree = 1

	var flushCount int
	flushTLBEntryFn = func(_ uintptr) {
		flushCount++
	}

	page := PageFromAddress(0xb8000)
	if err := Unmap(page); err != ErrInvalidMapping {
		t.Fatalf("expected unmapping a page that is not mapped to return ErrInvalidMapping; got %v", err)
	}

	if err := Map(page, pmm.FrameFromAddress(0xb8000), FlagRW, m.allocFrame); err != nil {
		t.Fatal(err)
	}

	if err := Unmap(page); err != nil {
		t.Fatal(err)
	}

	if _, err := Translate(page.Address()); err != ErrInvalidMapping {
		t.Fatalf("expected unmapped page translation to return ErrInvalidMapping; got %v", err)
	}

	if err := Unmap(page); err != ErrInvalidMapping {
		t.Fatalf("expected second Unmap to return ErrInvalidMapping; got %v", err)
	}

	if flushCount != 2 {
		t.Fatalf("expected 2 TLB flushes; got %d", flushCount)
	}
}
